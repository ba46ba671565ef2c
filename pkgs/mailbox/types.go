package mailbox

import (
	"time"
)

// Order selects the direction of the match-ID sequence before windowing.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// MailFilter holds the optional search filters for a page request.
// Zero-valued fields are not part of the query. A filter is built once per
// call and never mutated afterwards.
type MailFilter struct {
	Before      time.Time `json:"before,omitzero"`
	Since       time.Time `json:"since,omitzero"`
	Subject     string    `json:"subject,omitempty"`
	Body        string    `json:"body,omitempty"`
	Text        string    `json:"text,omitempty"`
	FromAddress string    `json:"from_address,omitempty"`
	ToAddress   string    `json:"to_address,omitempty"`
	Order       Order     `json:"order,omitempty"`
}

// MessageRecord is the normalized form of one fetched message.
type MessageRecord struct {
	Subject string    `json:"subject"`
	Sender  string    `json:"sender"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
	// Attachments holds filenames only; attachment content is never decoded.
	Attachments []string `json:"attachments"`
}

// Page is one window of decoded messages plus the total match count.
// Total always reflects the full match set, independent of the window.
type Page struct {
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Filter   MailFilter      `json:"filter"`
	Messages []MessageRecord `json:"messages"`
	Total    int             `json:"total"`
}

// OutboundMessage describes one message to submit. Bcc recipients receive
// delivery but never appear in any header.
type OutboundMessage struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Cc         []string `json:"cc,omitempty"`
	Bcc        []string `json:"bcc,omitempty"`
}

// ServerConfig holds connection settings for one mail server.
// An empty Password skips authentication on submission (anonymous relay);
// retrieval servers always authenticate.
type ServerConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// SSL enables implicit TLS (connect directly over TLS).
	SSL bool
	// StartTLS enables opportunistic TLS upgrade after connecting in plaintext.
	// When both SSL and StartTLS are set, implicit TLS wins.
	StartTLS bool
}
