package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/zerolib/mailagent/pkgs/config"
	"github.com/zerolib/mailagent/pkgs/dispatch"
)

type saveFlags struct {
	filterFlags
	output string
}

func parseSaveFlags(args []string) saveFlags {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	var f saveFlags
	f.install(fs)
	fs.StringVarP(&f.output, "output", "o", "", "Output mbox file path")
	if err := fs.Parse(args); err != nil {
		fatal("save: %v", err)
	}
	return f
}

func handleSave(settings *config.Settings, a *app, f saveFlags) error {
	if f.output == "" {
		return fmt.Errorf("--output is required")
	}

	filter, err := f.filter()
	if err != nil {
		return err
	}

	name, err := a.resolveAccount(settings)
	if err != nil {
		return err
	}
	handler, err := dispatch.ForAccount(settings, name, a.logger)
	if err != nil {
		return err
	}

	out, err := os.Create(f.output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", f.output, err)
	}
	defer out.Close()

	written, err := handler.ExportMbox(out, filter, f.page, f.pageSize)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d messages to %s\n", written, f.output)
	return nil
}
