package main

import (
	"fmt"
	"os"
)

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "mailagent: "+format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `mailagent v%s - mailbox access for agent runtimes

Usage:
  mailagent [global flags] <command> [command flags]

Commands:
  init        Write a starter settings file
  accounts    List configured accounts (credentials masked)
  page        Retrieve one page of messages
  send        Send an email
  save        Export one page of raw messages to an mbox file
  tools       List tool definitions, or call one: tools call <name> <json>

Global flags:
  --config     Settings file path (default: ~/.config/mailagent/config.toml)
  --account    Account name to use (default: first configured account)
  -v, --verbose  Verbose logging
  --version    Show version information

Examples:
  mailagent init
  mailagent page --since 2024-01-01 --subject invoice --page 1 --page-size 10
  mailagent send --to a@example.com --subject Hello --body "Hi there"
  mailagent save --output inbox.mbox --page-size 50
  mailagent tools call page_email '{"account_name":"work","page":1}'
`, version)
}
