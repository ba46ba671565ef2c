package main

import (
	"encoding/json"
	"fmt"

	"github.com/zerolib/mailagent/pkgs/config"
	"github.com/zerolib/mailagent/pkgs/tools"
)

// handleTools lists the tool definitions, or invokes one tool with JSON
// arguments when called as "tools call <name> [<json>]".
func handleTools(settings *config.Settings, a *app, args []string) error {
	registry := tools.New(settings, a.logger)

	if len(args) == 0 || args[0] == "list" {
		out, err := json.MarshalIndent(registry.All(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if args[0] != "call" {
		return fmt.Errorf("unknown tools subcommand: %s (use \"list\" or \"call\")", args[0])
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: mailagent tools call <name> [<json-args>]")
	}

	name := args[1]
	raw := json.RawMessage("{}")
	if len(args) > 2 {
		if !json.Valid([]byte(args[2])) {
			return fmt.Errorf("arguments are not valid JSON")
		}
		raw = json.RawMessage(args[2])
	}

	result, err := registry.Call(name, raw)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}
