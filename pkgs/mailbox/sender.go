package mailbox

import (
	"bytes"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SenderSession owns one connect→authenticate→send→close lifecycle against
// the delivery server. One Send call is exactly one attempt; there are no
// retries.
type SenderSession struct {
	server ServerConfig
	from   mail.Address
	logger *slog.Logger
}

// NewSenderSession creates a sender for the given server and sender identity.
func NewSenderSession(server ServerConfig, from mail.Address, logger *slog.Logger) *SenderSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &SenderSession{server: server, from: from, logger: logger}
}

// Send connects, authenticates, transmits the message, and closes. The
// delivery recipient set is To, then Cc, then Bcc; Bcc never appears in a
// header.
func (s *SenderSession) Send(msg OutboundMessage) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.logger.Debug("smtp close failed", "host", s.server.Host, "error", err)
		}
	}()

	buf, err := buildOutbound(s.from, msg)
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	recipients := make([]string, 0, len(msg.Recipients)+len(msg.Cc)+len(msg.Bcc))
	recipients = append(recipients, msg.Recipients...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)

	if err := client.SendMail(s.from.Address, recipients, buf); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

// connect opens the transport per the account's encryption policy and
// authenticates. An empty password means an anonymous relay, no AUTH.
func (s *SenderSession) connect() (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.server.Host, s.server.Port)
	tlsCfg := &tls.Config{ServerName: s.server.Host}

	var client *smtp.Client
	var err error

	switch {
	case s.server.SSL:
		client, err = smtp.DialTLS(addr, tlsCfg)
	case s.server.StartTLS:
		client, err = smtp.DialStartTLS(addr, tlsCfg)
	default:
		client, err = smtp.Dial(addr)
	}
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	if s.server.Password != "" {
		auth := sasl.NewPlainClient("", s.server.Username, s.server.Password)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, &AuthError{User: s.server.Username, Err: err}
		}
	}

	return client, nil
}

// buildOutbound constructs the single outbound message. Subject and From
// display name are header-encoded only when they contain non-ASCII content;
// Bcc is deliberately absent from the headers.
func buildOutbound(from mail.Address, msg OutboundMessage) (*bytes.Buffer, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetSubject(msg.Subject)
	header.SetAddressList("From", []*mail.Address{&from})
	header.SetAddressList("To", toAddressList(msg.Recipients))
	if len(msg.Cc) > 0 {
		header.SetAddressList("Cc", toAddressList(msg.Cc))
	}
	header.Set("Message-ID", generateMessageID(from.Address))

	iw, err := mail.CreateInlineWriter(&buf, header)
	if err != nil {
		return nil, err
	}

	var h mail.InlineHeader
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	w, err := iw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if err := iw.Close(); err != nil {
		return nil, err
	}

	return &buf, nil
}

func toAddressList(addrs []string) []*mail.Address {
	list := make([]*mail.Address, len(addrs))
	for i, a := range addrs {
		list[i] = &mail.Address{Address: a}
	}
	return list
}

// generateMessageID produces an RFC 5322 compliant Message-ID using the
// domain extracted from the sender's address.
func generateMessageID(fromAddr string) string {
	domain := "localhost"
	if idx := strings.Index(fromAddr, "@"); idx >= 0 {
		domain = fromAddr[idx+1:]
	}

	b := make([]byte, 8)
	_, _ = rand.Read(b)

	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), hex.EncodeToString(b), domain)
}
