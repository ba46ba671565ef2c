package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zerolib/mailagent/pkgs/config"
	"github.com/zerolib/mailagent/pkgs/dispatch"
	"github.com/zerolib/mailagent/pkgs/mailbox"
)

func (r *Registry) registerEmailTools() {
	r.register(&Tool{
		Def: Definition{
			Type: "function",
			Function: Function{
				Name:        "list_accounts",
				Description: "List all configured email accounts with masked credentials.",
				Parameters: Parameters{
					Type:       "object",
					Properties: map[string]Property{},
				},
			},
		},
		Execute: r.execListAccounts,
	})

	r.register(&Tool{
		Def: Definition{
			Type: "function",
			Function: Function{
				Name:        "add_email_account",
				Description: "Add a new email account configuration to the settings.",
				Parameters: Parameters{
					Type: "object",
					Properties: map[string]Property{
						"account_name":   {Type: "string", Description: "Unique name for the account"},
						"full_name":      {Type: "string", Description: "Display name for outgoing mail"},
						"email_address":  {Type: "string", Description: "Email address of the account"},
						"user_name":      {Type: "string", Description: "Login user name (default: email address)"},
						"password":       {Type: "string", Description: "Login password"},
						"imap_host":      {Type: "string", Description: "Incoming (IMAP) server host"},
						"imap_port":      {Type: "integer", Description: "Incoming server port (default: 993)"},
						"imap_ssl":       {Type: "boolean", Description: "Implicit TLS for incoming (default: true)"},
						"smtp_host":      {Type: "string", Description: "Outgoing (SMTP) server host"},
						"smtp_port":      {Type: "integer", Description: "Outgoing server port (default: 465)"},
						"smtp_ssl":       {Type: "boolean", Description: "Implicit TLS for outgoing (default: true)"},
						"smtp_start_ssl": {Type: "boolean", Description: "STARTTLS upgrade for outgoing (default: false)"},
					},
					Required: []string{"account_name", "email_address", "password", "imap_host", "smtp_host"},
				},
			},
		},
		Execute: r.execAddEmailAccount,
	})

	r.register(&Tool{
		Def: Definition{
			Type: "function",
			Function: Function{
				Name:        "page_email",
				Description: "Paginate emails, page starts at 1, before and since as RFC 3339 datetimes.",
				Parameters: Parameters{
					Type: "object",
					Properties: map[string]Property{
						"account_name": {Type: "string", Description: "The name of the email account"},
						"page":         {Type: "integer", Description: "The page number to retrieve, starting from 1 (default: 1)"},
						"page_size":    {Type: "integer", Description: "The number of emails per page (default: 10)"},
						"before":       {Type: "string", Description: "Only emails before this datetime (RFC 3339)"},
						"since":        {Type: "string", Description: "Only emails since this datetime (RFC 3339)"},
						"subject":      {Type: "string", Description: "Filter emails by subject"},
						"body":         {Type: "string", Description: "Filter emails by body"},
						"text":         {Type: "string", Description: "Filter emails by text"},
						"from_address": {Type: "string", Description: "Filter emails by sender address"},
						"to_address":   {Type: "string", Description: "Filter emails by recipient address"},
						"order":        {Type: "string", Description: "Order of emails: asc or desc (default: desc)"},
					},
					Required: []string{"account_name"},
				},
			},
		},
		Execute: r.execPageEmail,
	})

	r.register(&Tool{
		Def: Definition{
			Type: "function",
			Function: Function{
				Name:        "send_email",
				Description: "Send an email using the specified account. Recipients is a list of email addresses.",
				Parameters: Parameters{
					Type: "object",
					Properties: map[string]Property{
						"account_name": {Type: "string", Description: "The name of the email account to send from"},
						"recipients":   {Type: "array", Description: "Recipient email addresses"},
						"subject":      {Type: "string", Description: "The subject of the email"},
						"body":         {Type: "string", Description: "The body of the email"},
						"cc":           {Type: "array", Description: "CC email addresses (visible)"},
						"bcc":          {Type: "array", Description: "BCC email addresses (hidden)"},
					},
					Required: []string{"account_name", "recipients", "subject", "body"},
				},
			},
		},
		Execute: r.execSendEmail,
	})
}

func (r *Registry) execListAccounts(json.RawMessage) (string, error) {
	masked := r.settings.Masked()
	out, err := json.MarshalIndent(struct {
		Emails    []config.EmailAccount    `json:"emails"`
		Providers []config.ProviderAccount `json:"providers"`
	}{masked.Emails, masked.Providers}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (r *Registry) execAddEmailAccount(rawArgs json.RawMessage) (string, error) {
	var args struct {
		AccountName  string `json:"account_name"`
		FullName     string `json:"full_name"`
		EmailAddress string `json:"email_address"`
		UserName     string `json:"user_name"`
		Password     string `json:"password"`
		IMAPHost     string `json:"imap_host"`
		IMAPPort     int    `json:"imap_port"`
		IMAPSSL      *bool  `json:"imap_ssl"`
		SMTPHost     string `json:"smtp_host"`
		SMTPPort     int    `json:"smtp_port"`
		SMTPSSL      *bool  `json:"smtp_ssl"`
		SMTPStartSSL bool   `json:"smtp_start_ssl"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.AccountName == "" || args.EmailAddress == "" || args.Password == "" ||
		args.IMAPHost == "" || args.SMTPHost == "" {
		return "", fmt.Errorf("account_name, email_address, password, imap_host and smtp_host are required")
	}

	userName := args.UserName
	if userName == "" {
		userName = args.EmailAddress
	}
	fullName := args.FullName
	if fullName == "" {
		fullName = strings.SplitN(args.EmailAddress, "@", 2)[0]
	}
	if args.IMAPPort == 0 {
		args.IMAPPort = 993
	}
	if args.SMTPPort == 0 {
		args.SMTPPort = 465
	}

	account := config.EmailAccount{
		AccountName:  args.AccountName,
		FullName:     fullName,
		EmailAddress: args.EmailAddress,
		Incoming: config.Server{
			UserName: userName,
			Password: args.Password,
			Host:     args.IMAPHost,
			Port:     args.IMAPPort,
			UseSSL:   args.IMAPSSL == nil || *args.IMAPSSL,
		},
		Outgoing: config.Server{
			UserName: userName,
			Password: args.Password,
			Host:     args.SMTPHost,
			Port:     args.SMTPPort,
			UseSSL:   args.SMTPSSL == nil || *args.SMTPSSL,
			StartSSL: args.SMTPStartSSL,
		},
	}

	if err := r.settings.AddEmail(account); err != nil {
		return "", err
	}
	if err := r.settings.Store(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully added email account %q", args.AccountName), nil
}

func (r *Registry) execPageEmail(rawArgs json.RawMessage) (string, error) {
	var args struct {
		AccountName string `json:"account_name"`
		Page        int    `json:"page"`
		PageSize    int    `json:"page_size"`
		Before      string `json:"before"`
		Since       string `json:"since"`
		Subject     string `json:"subject"`
		Body        string `json:"body"`
		Text        string `json:"text"`
		FromAddress string `json:"from_address"`
		ToAddress   string `json:"to_address"`
		Order       string `json:"order"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Page == 0 {
		args.Page = 1
	}
	if args.PageSize == 0 {
		args.PageSize = 10
	}
	if args.Page < 1 || args.PageSize < 1 {
		return "", fmt.Errorf("page and page_size must be positive")
	}
	if args.Order == "" {
		args.Order = string(mailbox.OrderDesc)
	}

	filter := mailbox.MailFilter{
		Subject:     args.Subject,
		Body:        args.Body,
		Text:        args.Text,
		FromAddress: args.FromAddress,
		ToAddress:   args.ToAddress,
		Order:       mailbox.Order(args.Order),
	}
	var err error
	if filter.Before, err = parseDatetime(args.Before); err != nil {
		return "", fmt.Errorf("before: %w", err)
	}
	if filter.Since, err = parseDatetime(args.Since); err != nil {
		return "", fmt.Errorf("since: %w", err)
	}

	handler, err := dispatch.ForAccount(r.settings, args.AccountName, r.logger)
	if err != nil {
		return "", err
	}

	page, err := handler.GetPage(filter, args.Page, args.PageSize)
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (r *Registry) execSendEmail(rawArgs json.RawMessage) (string, error) {
	var args struct {
		AccountName string   `json:"account_name"`
		Recipients  []string `json:"recipients"`
		Subject     string   `json:"subject"`
		Body        string   `json:"body"`
		Cc          []string `json:"cc"`
		Bcc         []string `json:"bcc"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if len(args.Recipients) == 0 {
		return "", fmt.Errorf("recipients must not be empty")
	}

	handler, err := dispatch.ForAccount(r.settings, args.AccountName, r.logger)
	if err != nil {
		return "", err
	}

	if err := handler.Send(mailbox.OutboundMessage{
		Recipients: args.Recipients,
		Subject:    args.Subject,
		Body:       args.Body,
		Cc:         args.Cc,
		Bcc:        args.Bcc,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("Email sent successfully to %s", strings.Join(args.Recipients, ", ")), nil
}

// parseDatetime accepts an RFC 3339 datetime or a bare date.
func parseDatetime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 datetime or YYYY-MM-DD date, got %q", s)
	}
	return t, nil
}
