package main

import (
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/zerolib/mailagent/pkgs/config"
)

const version = "1.0.0"

// app holds global options parsed from the command line
type app struct {
	configPath string
	account    string
	verbose    bool
	logger     *slog.Logger
}

func main() {
	a := &app{}

	// Global flags
	flag.StringVar(&a.configPath, "config", "", "Settings file path (default: ~/.config/mailagent/config.toml)")
	flag.StringVar(&a.account, "account", "", "Account name to use")
	flag.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("mailagent v%s\n", version)
		os.Exit(0)
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	// "init" doesn't need settings loaded
	if cmd == "init" {
		if err := handleInit(path); err != nil {
			fatal("init: %v", err)
		}
		return
	}

	settings, err := config.Load(path)
	if err != nil {
		fatal("loading settings: %v", err)
	}

	switch cmd {
	case "accounts":
		if err := handleAccounts(settings); err != nil {
			fatal("accounts: %v", err)
		}
	case "page":
		if err := handlePage(settings, a, parsePageFlags(cmdArgs)); err != nil {
			fatal("page: %v", err)
		}
	case "send":
		if err := handleSend(settings, a, parseSendFlags(cmdArgs)); err != nil {
			fatal("send: %v", err)
		}
	case "save":
		if err := handleSave(settings, a, parseSaveFlags(cmdArgs)); err != nil {
			fatal("save: %v", err)
		}
	case "tools":
		if err := handleTools(settings, a, cmdArgs); err != nil {
			fatal("tools: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

// resolveAccount returns the selected account name, defaulting to the first
// configured email account.
func (a *app) resolveAccount(settings *config.Settings) (string, error) {
	if a.account != "" {
		return a.account, nil
	}
	if len(settings.Emails) > 0 {
		return settings.Emails[0].AccountName, nil
	}
	return "", fmt.Errorf("no accounts configured (run \"mailagent init\")")
}
