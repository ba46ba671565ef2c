package main

import (
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/zerolib/mailagent/pkgs/config"
	"github.com/zerolib/mailagent/pkgs/dispatch"
	"github.com/zerolib/mailagent/pkgs/mailbox"
)

// filterFlags are the search/pagination flags shared by "page" and "save".
type filterFlags struct {
	before, since                 string
	subject, body, text, from, to string
	order                         string
	page, pageSize                int
}

func (f *filterFlags) install(fs *flag.FlagSet) {
	fs.StringVar(&f.before, "before", "", "Only messages before this date (YYYY-MM-DD or RFC 3339)")
	fs.StringVar(&f.since, "since", "", "Only messages since this date (YYYY-MM-DD or RFC 3339)")
	fs.StringVar(&f.subject, "subject", "", "Filter by subject")
	fs.StringVar(&f.body, "body", "", "Filter by body")
	fs.StringVar(&f.text, "text", "", "Filter by text")
	fs.StringVar(&f.from, "from", "", "Filter by sender address")
	fs.StringVar(&f.to, "to-address", "", "Filter by recipient address")
	fs.StringVar(&f.order, "order", "desc", "Order: asc or desc")
	fs.IntVar(&f.page, "page", 1, "Page number (1-based)")
	fs.IntVar(&f.pageSize, "page-size", 10, "Messages per page")
}

func (f *filterFlags) filter() (mailbox.MailFilter, error) {
	filter := mailbox.MailFilter{
		Subject:     f.subject,
		Body:        f.body,
		Text:        f.text,
		FromAddress: f.from,
		ToAddress:   f.to,
		Order:       mailbox.Order(f.order),
	}

	var err error
	if filter.Before, err = parseDateFlag(f.before); err != nil {
		return filter, fmt.Errorf("--before: %w", err)
	}
	if filter.Since, err = parseDateFlag(f.since); err != nil {
		return filter, fmt.Errorf("--since: %w", err)
	}
	if f.page < 1 || f.pageSize < 1 {
		return filter, fmt.Errorf("--page and --page-size must be positive")
	}
	return filter, nil
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func parsePageFlags(args []string) filterFlags {
	fs := flag.NewFlagSet("page", flag.ExitOnError)
	var f filterFlags
	f.install(fs)
	if err := fs.Parse(args); err != nil {
		fatal("page: %v", err)
	}
	return f
}

func handlePage(settings *config.Settings, a *app, f filterFlags) error {
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

	page, err := handler.GetPage(filter, f.page, f.pageSize)
	if err != nil {
		return err
	}

	fmt.Printf("Page %d (size %d) of %d matching messages\n\n",
		page.Page, page.PageSize, page.Total)
	for i, msg := range page.Messages {
		fmt.Printf("%d. %s\n", i+1, msg.Subject)
		fmt.Printf("   From: %s\n", msg.Sender)
		fmt.Printf("   Date: %s\n", msg.Date.Format(time.RFC1123Z))
		if len(msg.Attachments) > 0 {
			fmt.Printf("   Attachments: %s\n", strings.Join(msg.Attachments, ", "))
		}
		fmt.Println()
	}
	return nil
}
