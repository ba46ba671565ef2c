package mailbox

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// inboxName is the only mailbox this engine operates on.
const inboxName = "INBOX"

// minContentBytes is the threshold for telling real message content apart
// from protocol metadata leaking into a fetch response. Documented
// heuristic, not a contract: payloads shorter than this (or recognizable
// status lines) are treated as "no content, try the next format". Uncommon
// server implementations may sit close to this boundary.
const minContentBytes = 100

// fetchFormat is one entry in the ordered fallback chain of fetch variants
// tried for a message until one yields distinguishable content.
type fetchFormat struct {
	name    string
	section *imap.FetchItemBodySection
}

var fetchFormats = []fetchFormat{
	{"BODY[]", &imap.FetchItemBodySection{}},
	{"BODY.PEEK[]", &imap.FetchItemBodySection{Peek: true}},
	{"BODY.PEEK[TEXT]", &imap.FetchItemBodySection{Specifier: imap.PartSpecifierText, Peek: true}},
}

// MailboxSession owns one connect→login→select→operate→logout lifecycle
// against the retrieval server. It is used by exactly one caller and never
// reused across calls; operations are strictly sequential.
type MailboxSession struct {
	server ServerConfig
	logger *slog.Logger
	client *imapclient.Client
}

// NewMailboxSession creates a session in the disconnected state.
func NewMailboxSession(server ServerConfig, logger *slog.Logger) *MailboxSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailboxSession{server: server, logger: logger}
}

// Connect opens the transport, authenticates, and selects the inbox.
func (s *MailboxSession) Connect() error {
	addr := fmt.Sprintf("%s:%d", s.server.Host, s.server.Port)

	var client *imapclient.Client
	var err error

	switch {
	case s.server.SSL:
		client, err = imapclient.DialTLS(addr, nil)
	case s.server.StartTLS:
		client, err = imapclient.DialStartTLS(addr, nil)
	default:
		client, err = imapclient.DialInsecure(addr, nil)
	}
	if err != nil {
		return &ConnectionError{Addr: addr, Err: err}
	}

	if err := client.Login(s.server.Username, s.server.Password).Wait(); err != nil {
		client.Close()
		return &AuthError{User: s.server.Username, Err: err}
	}

	if _, err := client.Select(inboxName, nil).Wait(); err != nil {
		if logoutErr := client.Logout().Wait(); logoutErr != nil {
			client.Close()
		}
		return &MailboxError{Mailbox: inboxName, Err: err}
	}

	s.client = client
	return nil
}

// Logout ends the session. It runs on every exit path; failures are logged
// and swallowed, never replacing an error already being propagated.
func (s *MailboxSession) Logout() {
	if s.client == nil {
		return
	}
	if err := s.client.Logout().Wait(); err != nil {
		s.logger.Debug("mailbox logout failed", "host", s.server.Host, "error", err)
		s.client.Close()
	}
	s.client = nil
}

// Search submits the query and returns the matching identifiers in the
// server's ascending order. A failed or malformed search is treated as zero
// matches, never an error.
func (s *MailboxSession) Search(terms SearchTerms) []imap.UID {
	data, err := s.client.UIDSearch(terms.Criteria(), nil).Wait()
	if err != nil {
		s.logger.Warn("mailbox search failed, treating as no matches",
			"query", terms.String(), "error", err)
		return nil
	}
	return data.AllUIDs()
}

// Count returns the full match count for the query, independent of any
// pagination window.
func (s *MailboxSession) Count(terms SearchTerms) int {
	return len(s.Search(terms))
}

// FetchRaw retrieves one message, trying each fetch format in order until
// one returns a payload distinguishable from protocol metadata. It returns
// nil when every format is exhausted; a single message's unavailability
// never aborts a batch.
func (s *MailboxSession) FetchRaw(uid imap.UID) []byte {
	for _, format := range fetchFormats {
		opts := &imap.FetchOptions{
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{format.section},
		}
		msgs, err := s.client.Fetch(imap.UIDSetNum(uid), opts).Collect()
		if err != nil || len(msgs) == 0 {
			s.logger.Debug("fetch format returned nothing",
				"uid", uid, "format", format.name, "error", err)
			continue
		}

		body := msgs[0].FindBodySection(format.section)
		if looksLikeContent(body) {
			return body
		}
		s.logger.Debug("fetch format returned metadata only",
			"uid", uid, "format", format.name, "bytes", len(body))
	}

	s.logger.Warn("all fetch formats exhausted, skipping message", "uid", uid)
	return nil
}

// paginate selects the 1-based page window over the ordered identifier
// sequence, reversing it first for descending order. Out-of-range pages
// yield an empty window.
func paginate(uids []imap.UID, page, pageSize int, order Order) []imap.UID {
	if order == OrderDesc {
		reversed := make([]imap.UID, len(uids))
		for i, uid := range uids {
			reversed[len(uids)-1-i] = uid
		}
		uids = reversed
	}

	start := (page - 1) * pageSize
	if start < 0 || start >= len(uids) {
		return nil
	}
	end := start + pageSize
	if end < start {
		return nil
	}
	if end > len(uids) {
		end = len(uids)
	}
	return uids[start:end]
}

// looksLikeContent applies the content-vs-metadata heuristic: real messages
// exceed minContentBytes and are not bare protocol status lines.
func looksLikeContent(b []byte) bool {
	if len(b) < minContentBytes {
		return false
	}
	return !isStatusLine(b)
}

// isStatusLine reports whether b is a single protocol status/metadata line
// rather than message content.
func isStatusLine(b []byte) bool {
	trimmed := bytes.TrimSpace(b)
	if bytes.ContainsAny(trimmed, "\r\n") {
		return false
	}
	for _, prefix := range [][]byte{[]byte("* "), []byte("OK "), []byte("NO "), []byte("BAD ")} {
		if bytes.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	// "<seq> FETCH (...)" style untagged response data.
	fields := bytes.Fields(trimmed)
	return len(fields) >= 2 && isAllDigits(fields[0]) && bytes.EqualFold(fields[1], []byte("FETCH"))
}

func isAllDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
