package mailbox

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-imap/v2/imapserver"
	"github.com/emersion/go-imap/v2/imapserver/imapmemserver"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
)

const (
	testUser = "testuser"
	testPass = "testpass"
)

// testLogger keeps session logging out of test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// splitHostPort splits "host:port" into (host, int port).
func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return host, port
}

// ---------------------------------------------------------------------------
// IMAP mock server
// ---------------------------------------------------------------------------

// newTestIMAPServer starts an in-memory IMAP server with one user and an
// INBOX, and returns the listen address.
func newTestIMAPServer(t *testing.T) string {
	t.Helper()

	memSrv := imapmemserver.New()
	user := imapmemserver.NewUser(testUser, testPass)
	user.Create("INBOX", nil)
	memSrv.AddUser(user)

	srv := imapserver.New(&imapserver.Options{
		NewSession: func(_ *imapserver.Conn) (imapserver.Session, *imapserver.GreetingData, error) {
			return memSrv.NewSession(), nil, nil
		},
		InsecureAuth: true,
		Caps: imap.CapSet{
			imap.CapIMAP4rev1: {},
		},
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return ln.Addr().String()
}

// appendTestMail appends a raw RFC 5322 message to INBOX via a direct IMAP
// client (not through the session under test).
func appendTestMail(t *testing.T, addr, rawMsg string) {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	c := imapclient.New(conn, nil)
	if err := c.Login(testUser, testPass).Wait(); err != nil {
		t.Fatal(err)
	}

	appendCmd := c.Append("INBOX", int64(len(rawMsg)), nil)
	if _, err := appendCmd.Write([]byte(rawMsg)); err != nil {
		t.Fatal(err)
	}
	if err := appendCmd.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := appendCmd.Wait(); err != nil {
		t.Fatal(err)
	}
	c.Close()
}

// expungeTestMail removes one message from INBOX via a direct IMAP client,
// out-of-band of the session under test.
func expungeTestMail(t *testing.T, addr string, uid imap.UID) {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	c := imapclient.New(conn, nil)
	if err := c.Login(testUser, testPass).Wait(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Select("INBOX", nil).Wait(); err != nil {
		t.Fatal(err)
	}
	_, err = c.Store(imap.UIDSetNum(uid), &imap.StoreFlags{
		Op:    imap.StoreFlagsAdd,
		Flags: []imap.Flag{imap.FlagDeleted},
	}, nil).Collect()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Expunge().Collect(); err != nil {
		t.Fatal(err)
	}
	c.Close()
}

// testServerConfig points a ServerConfig at a test server address with the
// standard test credentials and no TLS.
func testServerConfig(t *testing.T, addr string) ServerConfig {
	t.Helper()
	host, port := splitHostPort(t, addr)
	return ServerConfig{
		Host:     host,
		Port:     port,
		Username: testUser,
		Password: testPass,
	}
}

// newConnectedSession builds and connects a MailboxSession against the test
// server, with logout on cleanup.
func newConnectedSession(t *testing.T, addr string) *MailboxSession {
	t.Helper()
	sess := NewMailboxSession(testServerConfig(t, addr), testLogger())
	if err := sess.Connect(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sess.Logout)
	return sess
}

// ---------------------------------------------------------------------------
// SMTP mock server
// ---------------------------------------------------------------------------

type smtpTestMessage struct {
	From string
	To   []string
	Data []byte
}

type smtpTestBackend struct {
	mu       sync.Mutex
	messages []*smtpTestMessage
}

func (be *smtpTestBackend) NewSession(_ *gosmtp.Conn) (gosmtp.Session, error) {
	return &smtpTestSession{backend: be}, nil
}

func (be *smtpTestBackend) Messages() []*smtpTestMessage {
	be.mu.Lock()
	defer be.mu.Unlock()
	return append([]*smtpTestMessage(nil), be.messages...)
}

type smtpTestSession struct {
	backend *smtpTestBackend
	msg     *smtpTestMessage
}

func (s *smtpTestSession) AuthMechanisms() []string { return []string{"PLAIN"} }

func (s *smtpTestSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != testUser || password != testPass {
			return errors.New("invalid credentials")
		}
		return nil
	}), nil
}

func (s *smtpTestSession) Mail(from string, _ *gosmtp.MailOptions) error {
	s.msg = &smtpTestMessage{From: from}
	return nil
}

func (s *smtpTestSession) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	s.msg.To = append(s.msg.To, to)
	return nil
}

func (s *smtpTestSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.Data = b
	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, s.msg)
	s.backend.mu.Unlock()
	return nil
}

func (s *smtpTestSession) Reset()        { s.msg = nil }
func (s *smtpTestSession) Logout() error { return nil }

var _ gosmtp.AuthSession = (*smtpTestSession)(nil)

// newTestSMTPServer starts a mock SMTP server.  Returns the backend (to
// inspect received mail) and the listen address.
func newTestSMTPServer(t *testing.T) (*smtpTestBackend, string) {
	t.Helper()

	be := &smtpTestBackend{}
	srv := gosmtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return be, ln.Addr().String()
}

// ---------------------------------------------------------------------------
// Test messages
// ---------------------------------------------------------------------------

// testMailPlain is a minimal single-part RFC 5322 message.
const testMailPlain = "MIME-Version: 1.0\r\n" +
	"From: sender@example.com\r\n" +
	"To: rcpt@example.com\r\n" +
	"Subject: Test Subject\r\n" +
	"Date: Mon, 10 Feb 2026 08:00:00 +0000\r\n" +
	"Message-Id: <test-1@example.com>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello, World!"

// testMailMultipart is a multipart/mixed message with text + attachment.
const testMailMultipart = "MIME-Version: 1.0\r\n" +
	"From: Alice Example <alice@example.com>\r\n" +
	"To: rcpt@example.com\r\n" +
	"Subject: Multipart Test\r\n" +
	"Date: Mon, 10 Feb 2026 08:00:00 +0000\r\n" +
	"Message-Id: <test-multi@example.com>\r\n" +
	"Content-Type: multipart/mixed; boundary=\"TESTBOUNDARY\"\r\n" +
	"\r\n" +
	"--TESTBOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Plain text body\r\n" +
	"--TESTBOUNDARY\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
	"\r\n" +
	"BINARYDATA\r\n" +
	"--TESTBOUNDARY--\r\n"

// testMailNested is a multipart/mixed containing a multipart/alternative.
const testMailNested = "MIME-Version: 1.0\r\n" +
	"From: sender@example.com\r\n" +
	"To: rcpt@example.com\r\n" +
	"Subject: Nested Multipart\r\n" +
	"Date: Mon, 10 Feb 2026 08:00:00 +0000\r\n" +
	"Message-Id: <test-nested@example.com>\r\n" +
	"Content-Type: multipart/mixed; boundary=\"OUTER\"\r\n" +
	"\r\n" +
	"--OUTER\r\n" +
	"Content-Type: multipart/alternative; boundary=\"INNER\"\r\n" +
	"\r\n" +
	"--INNER\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Plain version\r\n" +
	"--INNER\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>HTML version</p>\r\n" +
	"--INNER--\r\n" +
	"--OUTER\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"image.png\"\r\n" +
	"\r\n" +
	"PNG-DATA\r\n" +
	"--OUTER--\r\n"
