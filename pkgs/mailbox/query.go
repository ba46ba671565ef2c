package mailbox

import (
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
)

// Search term keywords, in the order they are emitted.
const (
	termAll     = "ALL"
	termSince   = "SINCE"
	termBefore  = "BEFORE"
	termSubject = "SUBJECT"
	termBody    = "BODY"
	termText    = "TEXT"
	termFrom    = "FROM"
	termTo      = "TO"
)

// SearchTerm is one protocol-level keyword/value pair.
type SearchTerm struct {
	Key   string
	Value string
}

// SearchTerms is the ordered protocol query derived from a MailFilter.
// An empty filter yields the single ALL term. The term order is fixed
// (since, before, subject, body, text, from, to) so rendered queries are
// reproducible.
type SearchTerms struct {
	terms  []SearchTerm
	since  time.Time
	before time.Time
}

// BuildSearchTerms translates a filter into search terms. Pure, no I/O.
func BuildSearchTerms(f MailFilter) SearchTerms {
	st := SearchTerms{since: f.Since, before: f.Before}

	if !f.Since.IsZero() {
		st.append(termSince, formatSearchDate(f.Since))
	}
	if !f.Before.IsZero() {
		st.append(termBefore, formatSearchDate(f.Before))
	}
	if f.Subject != "" {
		st.append(termSubject, f.Subject)
	}
	if f.Body != "" {
		st.append(termBody, f.Body)
	}
	if f.Text != "" {
		st.append(termText, f.Text)
	}
	if f.FromAddress != "" {
		st.append(termFrom, f.FromAddress)
	}
	if f.ToAddress != "" {
		st.append(termTo, f.ToAddress)
	}

	if len(st.terms) == 0 {
		st.append(termAll, "")
	}
	return st
}

func (st *SearchTerms) append(key, value string) {
	st.terms = append(st.terms, SearchTerm{Key: key, Value: value})
}

// Terms returns the ordered keyword/value pairs.
func (st SearchTerms) Terms() []SearchTerm {
	return st.terms
}

// String renders the query the way it appears on the wire, for logging.
func (st SearchTerms) String() string {
	var sb strings.Builder
	for i, t := range st.terms {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Key)
		if t.Value != "" {
			sb.WriteByte(' ')
			sb.WriteString(t.Value)
		}
	}
	return sb.String()
}

// Criteria converts the terms into the client library's search criteria.
func (st SearchTerms) Criteria() *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{}
	for _, t := range st.terms {
		switch t.Key {
		case termSince:
			criteria.Since = searchDay(st.since)
		case termBefore:
			criteria.Before = searchDay(st.before)
		case termSubject:
			criteria.Header = append(criteria.Header,
				imap.SearchCriteriaHeaderField{Key: "Subject", Value: t.Value})
		case termBody:
			criteria.Body = append(criteria.Body, t.Value)
		case termText:
			criteria.Text = append(criteria.Text, t.Value)
		case termFrom:
			criteria.Header = append(criteria.Header,
				imap.SearchCriteriaHeaderField{Key: "From", Value: t.Value})
		case termTo:
			criteria.Header = append(criteria.Header,
				imap.SearchCriteriaHeaderField{Key: "To", Value: t.Value})
		}
	}
	return criteria
}

// formatSearchDate renders a timestamp as a protocol date: two-digit day,
// uppercase three-letter month, four-digit year. Time of day and timezone
// are ignored (SINCE/BEFORE are date-granular).
func formatSearchDate(t time.Time) string {
	return strings.ToUpper(t.Format("02-Jan-2006"))
}

// searchDay truncates a timestamp to its calendar day.
func searchDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
