// Package dispatch resolves an account name to a handler implementing the
// mailbox capability. Only email (mailbox-backed) accounts support it;
// provider accounts report ErrNotSupported instead of being silently
// dispatched.
package dispatch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/zerolib/mailagent/pkgs/config"
	"github.com/zerolib/mailagent/pkgs/mailbox"
)

// ErrNotSupported is returned for account kinds without mailbox operations.
var ErrNotSupported = errors.New("account does not support mailbox operations")

// Handler is the capability interface exposed to callers: paginated
// retrieval, sending, and mbox export.
type Handler interface {
	GetPage(filter mailbox.MailFilter, page, pageSize int) (*mailbox.Page, error)
	Send(msg mailbox.OutboundMessage) error
	ExportMbox(w io.Writer, filter mailbox.MailFilter, page, pageSize int) (int, error)
}

// ForAccount returns the handler for the named account.
func ForAccount(settings *config.Settings, name string, logger *slog.Logger) (Handler, error) {
	if account, ok := settings.Email(name); ok {
		return mailbox.NewHandler(handlerConfig(account), logger), nil
	}
	if account, ok := settings.Provider(name); ok {
		return nil, fmt.Errorf("account %s (provider %s): %w",
			account.AccountName, account.ProviderName, ErrNotSupported)
	}
	return nil, fmt.Errorf("account %s not found, available accounts: %s",
		name, strings.Join(settings.AccountNames(), ", "))
}

// handlerConfig converts a configured account into the engine's settings.
func handlerConfig(account *config.EmailAccount) mailbox.HandlerConfig {
	return mailbox.HandlerConfig{
		Incoming:    serverConfig(account.Incoming),
		Outgoing:    serverConfig(account.Outgoing),
		FromName:    account.FullName,
		FromAddress: account.EmailAddress,
	}
}

func serverConfig(server config.Server) mailbox.ServerConfig {
	return mailbox.ServerConfig{
		Host:     server.Host,
		Port:     server.Port,
		Username: server.UserName,
		Password: server.Password,
		SSL:      server.UseSSL,
		StartTLS: server.StartSSL,
	}
}
