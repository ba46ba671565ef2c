package mailbox

import (
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"
)

func newTestSender(t *testing.T, addr string) *SenderSession {
	t.Helper()
	return NewSenderSession(testServerConfig(t, addr), mail.Address{
		Name:    "Sender",
		Address: "sender@example.com",
	}, testLogger())
}

func TestSenderSend(t *testing.T) {
	be, addr := newTestSMTPServer(t)

	sender := newTestSender(t, addr)
	err := sender.Send(OutboundMessage{
		Recipients: []string{"rcpt@example.com"},
		Subject:    "Test Subject",
		Body:       "Hello, World!",
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	msgs := be.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].From != "sender@example.com" {
		t.Errorf("unexpected envelope from: %s", msgs[0].From)
	}
	if len(msgs[0].To) != 1 || msgs[0].To[0] != "rcpt@example.com" {
		t.Errorf("unexpected envelope to: %v", msgs[0].To)
	}

	data := string(msgs[0].Data)
	if !strings.Contains(data, "Subject: Test Subject") {
		t.Error("ascii subject should appear unencoded in headers")
	}
	if !strings.Contains(data, "Hello, World!") {
		t.Error("body not found in message data")
	}
	if !strings.Contains(data, "Message-ID: <") && !strings.Contains(data, "Message-Id: <") {
		t.Error("Message-ID header not found")
	}
}

func TestSenderSend_BccExcludedFromHeaders(t *testing.T) {
	be, addr := newTestSMTPServer(t)

	sender := newTestSender(t, addr)
	err := sender.Send(OutboundMessage{
		Recipients: []string{"to@example.com"},
		Subject:    "Hidden copies",
		Body:       "body",
		Cc:         []string{"cc@example.com"},
		Bcc:        []string{"secret@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}

	msgs := be.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}

	// Envelope: To, then Cc, then Bcc.
	want := []string{"to@example.com", "cc@example.com", "secret@example.com"}
	if len(msgs[0].To) != len(want) {
		t.Fatalf("expected %d envelope recipients, got %v", len(want), msgs[0].To)
	}
	for i, addr := range want {
		if msgs[0].To[i] != addr {
			t.Errorf("envelope recipient %d: got %s, want %s", i, msgs[0].To[i], addr)
		}
	}

	data := string(msgs[0].Data)
	if !strings.Contains(data, "cc@example.com") {
		t.Error("Cc header missing")
	}
	if strings.Contains(data, "secret@example.com") {
		t.Error("bcc recipient leaked into message headers")
	}
	if strings.Contains(data, "Bcc") {
		t.Error("Bcc header present in message data")
	}
}

func TestSenderSend_NonASCIISubject(t *testing.T) {
	be, addr := newTestSMTPServer(t)

	sender := newTestSender(t, addr)
	err := sender.Send(OutboundMessage{
		Recipients: []string{"rcpt@example.com"},
		Subject:    "Grüße aus Berlin",
		Body:       "body",
	})
	if err != nil {
		t.Fatal(err)
	}

	data := string(be.Messages()[0].Data)
	if !strings.Contains(data, "=?utf-8?") {
		t.Error("non-ascii subject should be encoded-word encoded")
	}
	if strings.Contains(data, "Subject: Grüße") {
		t.Error("raw non-ascii subject leaked into headers")
	}
}

func TestSenderSend_BadAuth(t *testing.T) {
	_, addr := newTestSMTPServer(t)

	cfg := testServerConfig(t, addr)
	cfg.Username = "wrong"
	cfg.Password = "wrong"
	sender := NewSenderSession(cfg, mail.Address{Address: "sender@example.com"}, testLogger())

	err := sender.Send(OutboundMessage{
		Recipients: []string{"rcpt@example.com"},
		Subject:    "fail",
		Body:       "should fail",
	})
	if err == nil {
		t.Fatal("expected auth error, got nil")
	}
	if !IsAuthError(err) {
		t.Errorf("expected AuthError, got %T: %v", err, err)
	}
}

func TestSenderSend_AnonymousRelay(t *testing.T) {
	be, addr := newTestSMTPServer(t)

	cfg := testServerConfig(t, addr)
	cfg.Username = ""
	cfg.Password = ""
	sender := NewSenderSession(cfg, mail.Address{Address: "sender@example.com"}, testLogger())

	// No password means no AUTH exchange at all.
	err := sender.Send(OutboundMessage{
		Recipients: []string{"rcpt@example.com"},
		Subject:    "Anonymous",
		Body:       "no credentials",
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if len(be.Messages()) != 1 {
		t.Fatalf("expected 1 message, got %d", len(be.Messages()))
	}
}

func TestSenderSend_Unreachable(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 1}
	sender := NewSenderSession(cfg, mail.Address{Address: "sender@example.com"}, testLogger())

	err := sender.Send(OutboundMessage{
		Recipients: []string{"rcpt@example.com"},
		Subject:    "fail",
		Body:       "should fail",
	})
	if !IsConnectionError(err) {
		t.Errorf("expected ConnectionError, got %T: %v", err, err)
	}
}

func TestGenerateMessageID(t *testing.T) {
	id := generateMessageID("user@example.com")

	if id[0] != '<' || id[len(id)-1] != '>' {
		t.Errorf("missing angle brackets: %s", id)
	}
	if !strings.Contains(id, "@example.com>") {
		t.Errorf("missing sender domain: %s", id)
	}

	if generateMessageID("nodomain") == "" || !strings.Contains(generateMessageID("nodomain"), "@localhost>") {
		t.Error("address without domain should fall back to localhost")
	}

	ids := make(map[string]struct{}, 50)
	for i := 0; i < 50; i++ {
		id := generateMessageID("user@example.com")
		if _, dup := ids[id]; dup {
			t.Fatalf("duplicate message id: %s", id)
		}
		ids[id] = struct{}{}
	}
}
