package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/zerolib/mailagent/pkgs/config"
	"github.com/zerolib/mailagent/pkgs/dispatch"
	"github.com/zerolib/mailagent/pkgs/mailbox"
)

type sendFlags struct {
	to, cc, bcc, subject, body string
	bodyFile                   string
}

func parseSendFlags(args []string) sendFlags {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	var f sendFlags
	fs.StringVar(&f.to, "to", "", "Recipients (comma-separated)")
	fs.StringVar(&f.cc, "cc", "", "CC recipients (comma-separated)")
	fs.StringVar(&f.bcc, "bcc", "", "BCC recipients (comma-separated)")
	fs.StringVar(&f.subject, "subject", "", "Email subject")
	fs.StringVar(&f.body, "body", "", "Plain text body")
	fs.StringVar(&f.bodyFile, "body-file", "", "Plain text body from file (\"-\" for stdin)")
	if err := fs.Parse(args); err != nil {
		fatal("send: %v", err)
	}
	return f
}

// readBodySource reads body content from a file path or stdin ("-").
func readBodySource(path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func handleSend(settings *config.Settings, a *app, f sendFlags) error {
	if f.to == "" {
		return fmt.Errorf("--to is required")
	}
	if f.subject == "" {
		return fmt.Errorf("--subject is required")
	}

	// --body-file takes precedence over --body
	body := f.body
	if f.bodyFile != "" {
		content, err := readBodySource(f.bodyFile)
		if err != nil {
			return fmt.Errorf("--body-file: %w", err)
		}
		body = content
	}

	name, err := a.resolveAccount(settings)
	if err != nil {
		return err
	}
	handler, err := dispatch.ForAccount(settings, name, a.logger)
	if err != nil {
		return err
	}

	msg := mailbox.OutboundMessage{
		Recipients: splitAddresses(f.to),
		Subject:    f.subject,
		Body:       body,
		Cc:         splitAddresses(f.cc),
		Bcc:        splitAddresses(f.bcc),
	}
	if err := handler.Send(msg); err != nil {
		return err
	}

	fmt.Printf("Email sent to %s\n", strings.Join(msg.Recipients, ", "))
	return nil
}

func splitAddresses(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			addrs = append(addrs, p)
		}
	}
	return addrs
}
