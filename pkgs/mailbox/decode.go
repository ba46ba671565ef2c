package mailbox

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"time"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	// Register charset decoders (windows-1252, iso-8859-*, koi8-r, etc.)
	_ "github.com/emersion/go-message/charset"
)

// Decode parses a raw RFC 5322 message into a MessageRecord. It never fails:
// on any parse irregularity it substitutes best-effort defaults (empty
// subject/sender, decode-time "now" for an unparseable date) and still
// returns a record.
func Decode(raw []byte) MessageRecord {
	rec := MessageRecord{
		Date:        time.Now(),
		Attachments: []string{},
	}

	entity, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		// Structurally unparseable: treat the whole payload as body text.
		rec.Body = sanitizeText(raw)
		return rec
	}

	header := mail.Header{Header: entity.Header}

	if subject, err := header.Subject(); err == nil {
		rec.Subject = subject
	} else {
		rec.Subject = decodeHeader(header.Get("Subject"))
	}

	rec.Sender = decodeHeader(header.Get("From"))

	if date, err := header.Date(); err == nil && !date.IsZero() {
		rec.Date = date
	}

	var body strings.Builder
	if mr := entity.MultipartReader(); mr != nil {
		collectParts(&rec, &body, mr)
	} else {
		// Single-part: the entire payload is the body.
		if b, err := io.ReadAll(entity.Body); err == nil {
			body.WriteString(sanitizeText(b))
		}
	}
	rec.Body = body.String()

	return rec
}

// collectParts walks a multipart message, concatenating plain-text parts
// into body and recording attachment filenames. Other content types are
// ignored. Nested multiparts are walked recursively.
func collectParts(rec *MessageRecord, body *strings.Builder, mr gomessage.MultipartReader) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return
		}
		if err != nil && !gomessage.IsUnknownCharset(err) {
			return
		}

		ct, _, _ := part.Header.ContentType()
		disp, _, _ := part.Header.ContentDisposition()

		if disp == "attachment" {
			h := mail.AttachmentHeader{Header: part.Header}
			if filename, err := h.Filename(); err == nil && filename != "" {
				rec.Attachments = append(rec.Attachments, filename)
			}
			continue
		}

		switch {
		case strings.HasPrefix(ct, "multipart/"):
			if nested := part.MultipartReader(); nested != nil {
				collectParts(rec, body, nested)
			}
		case ct == "text/plain":
			if b, err := io.ReadAll(part.Body); err == nil {
				body.WriteString(sanitizeText(b))
			}
		}
	}
}

// sanitizeText returns b as a string with undecodable bytes replaced, so a
// wrong or missing charset declaration still yields usable body text.
func sanitizeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

var mimeWordDecoder = &mime.WordDecoder{}

// decodeHeader decodes RFC 2047 encoded-words in a header value, returning
// the input unchanged when it cannot be decoded.
func decodeHeader(s string) string {
	decoded, err := mimeWordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
