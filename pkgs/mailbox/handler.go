package mailbox

import (
	"io"
	"log/slog"
	"time"

	netmail "net/mail"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message/mail"
)

// HandlerConfig carries the per-account settings a handler needs: the two
// server endpoints and the display sender identity for outgoing mail.
type HandlerConfig struct {
	Incoming    ServerConfig
	Outgoing    ServerConfig
	FromName    string
	FromAddress string
}

// Handler is the composition root for one account. It holds no state across
// calls; every operation opens, uses, and discards its own session.
type Handler struct {
	cfg    HandlerConfig
	logger *slog.Logger
}

// NewHandler creates a handler for one account.
func NewHandler(cfg HandlerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cfg: cfg, logger: logger}
}

// GetPage retrieves one window of decoded messages plus the total match
// count. The window fetch and the count are two independent session
// lifecycles. Per-message fetch failures shrink the page, never abort it;
// only session establishment failures surface.
func (h *Handler) GetPage(filter MailFilter, page, pageSize int) (*Page, error) {
	terms := BuildSearchTerms(filter)

	messages, err := h.fetchPage(terms, filter.Order, page, pageSize)
	if err != nil {
		return nil, err
	}

	total, err := h.countMatches(terms)
	if err != nil {
		return nil, err
	}

	return &Page{
		Page:     page,
		PageSize: pageSize,
		Filter:   filter,
		Messages: messages,
		Total:    total,
	}, nil
}

// Send forwards the message through one sender session.
func (h *Handler) Send(msg OutboundMessage) error {
	sess := NewSenderSession(h.cfg.Outgoing, mail.Address{
		Name:    h.cfg.FromName,
		Address: h.cfg.FromAddress,
	}, h.logger)
	return sess.Send(msg)
}

// ExportMbox streams the raw messages of one page window into an mbox.
// It returns the number of messages written; per-message fetch failures are
// skipped as in GetPage.
func (h *Handler) ExportMbox(w io.Writer, filter MailFilter, page, pageSize int) (int, error) {
	terms := BuildSearchTerms(filter)

	sess := NewMailboxSession(h.cfg.Incoming, h.logger)
	if err := sess.Connect(); err != nil {
		return 0, err
	}
	defer sess.Logout()

	window := paginate(sess.Search(terms), page, pageSize, filter.Order)

	mw := mbox.NewWriter(w)
	written := 0
	for _, uid := range window {
		raw := sess.FetchRaw(uid)
		if raw == nil {
			continue
		}

		rec := Decode(raw)
		from := senderAddress(rec.Sender)
		date := rec.Date
		if date.IsZero() {
			date = time.Now()
		}

		msgWriter, err := mw.CreateMessage(from, date)
		if err != nil {
			return written, err
		}
		if _, err := msgWriter.Write(raw); err != nil {
			return written, err
		}
		written++
	}

	if err := mw.Close(); err != nil {
		return written, err
	}
	return written, nil
}

// fetchPage opens one session, searches, fetches the window in order, and
// decodes each message. Skipped messages shorten the result, preserving the
// order of the rest.
func (h *Handler) fetchPage(terms SearchTerms, order Order, page, pageSize int) ([]MessageRecord, error) {
	sess := NewMailboxSession(h.cfg.Incoming, h.logger)
	if err := sess.Connect(); err != nil {
		return nil, err
	}
	defer sess.Logout()

	window := paginate(sess.Search(terms), page, pageSize, order)

	messages := make([]MessageRecord, 0, len(window))
	for _, uid := range window {
		raw := sess.FetchRaw(uid)
		if raw == nil {
			continue
		}
		messages = append(messages, Decode(raw))
	}
	return messages, nil
}

// countMatches opens an independent session for the full match count.
func (h *Handler) countMatches(terms SearchTerms) (int, error) {
	sess := NewMailboxSession(h.cfg.Incoming, h.logger)
	if err := sess.Connect(); err != nil {
		return 0, err
	}
	defer sess.Logout()

	return sess.Count(terms), nil
}

// senderAddress extracts a bare address from a decoded From value for the
// mbox separator line.
func senderAddress(sender string) string {
	if addr, err := netmail.ParseAddress(sender); err == nil {
		return addr.Address
	}
	if sender != "" {
		return sender
	}
	return "unknown@unknown"
}
