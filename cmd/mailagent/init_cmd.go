package main

import (
	"fmt"
	"os"

	"github.com/zerolib/mailagent/pkgs/config"
)

func handleInit(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("settings file already exists: %s", path)
	}

	settings := config.ExampleSettings(path)
	if err := settings.Store(); err != nil {
		return err
	}

	fmt.Printf("Wrote starter settings to %s\n", path)
	fmt.Println("Edit the file and replace the example account with your own.")
	return nil
}
