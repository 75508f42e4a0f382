package ingest

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnparsableAmount is returned for amount cells that survive no
// normalization.
var ErrUnparsableAmount = errors.New("unparsable amount")

// ErrUnparsableDate is returned for date cells in no known format.
var ErrUnparsableDate = errors.New("unparsable date")

// ParseLocalizedAmount parses a German-locale amount string: `.` is a
// thousands separator and `,` the decimal separator, so "-1.573,42" becomes
// -1573.42. Currency symbols and whitespace are tolerated.
func ParseLocalizedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("€", "", "EUR", "", " ", "", " ", "").Replace(s)

	if s == "" {
		return decimal.Zero, ErrUnparsableAmount
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrUnparsableAmount
	}

	return d, nil
}

var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02.01.06",
	"02/01/2006",
}

// ParseDate parses a statement date cell in any supported layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnparsableDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ErrUnparsableDate
}

// SEPA marker tokens that separate the payer name from the technical tail of
// a combined description field (end-to-end ids, mandate references, creditor
// ids, purpose markers).
var sepaMarkers = []string{
	"eref",
	"kref",
	"mref",
	"cred",
	"debt",
	"svwz",
	"abwa",
	"end-to-end",
	"endtoendid",
	"mandatsref",
	"mandatsreferenz",
	"glaeubiger-id",
	"gläubiger-id",
}

var dateTokenRegex = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2,4}$`)

// markerSplit reports whether tok is a SEPA marker or bare date token. For
// markers of the form "SVWZ+text" the trailing text is returned so it can
// seed the derived reference.
func markerSplit(tok string) (bool, string) {
	if dateTokenRegex.MatchString(tok) {
		return true, ""
	}

	lower := strings.ToLower(tok)
	for _, m := range sepaMarkers {
		if lower == m || lower == m+":" || lower == m+"+" {
			return true, ""
		}

		if strings.HasPrefix(lower, m+"+") || strings.HasPrefix(lower, m+":") {
			return true, tok[len(m)+1:]
		}
	}

	return false, ""
}

// ExtractSender derives a sender/receiver candidate from a combined
// description field: the leading whitespace-delimited tokens up to the first
// SEPA marker or bare date token.
func ExtractSender(description string) string {
	var lead []string

	for _, tok := range strings.Fields(description) {
		if isMarker, _ := markerSplit(tok); isMarker {
			break
		}

		lead = append(lead, tok)
	}

	return strings.Join(lead, " ")
}

var referenceLabelRegex = regexp.MustCompile(`(?i)(?:verwendungszweck|zweck|kundenreferenz)\s*:\s*([^,;]+)`)

// ExtractReference derives a payment reference from a combined description
// field: a labeled reference ("Verwendungszweck: ...") wins; otherwise the
// text following the first SEPA marker, truncated at the next comma.
func ExtractReference(description string) string {
	if m := referenceLabelRegex.FindStringSubmatch(description); m != nil {
		return strings.TrimSpace(m[1])
	}

	tokens := strings.Fields(description)
	for i, tok := range tokens {
		isMarker, tail := markerSplit(tok)
		if !isMarker {
			continue
		}

		parts := tokens[i+1:]
		if tail != "" {
			parts = append([]string{tail}, parts...)
		}

		rest := strings.Join(parts, " ")
		if idx := strings.Index(rest, ","); idx >= 0 {
			rest = rest[:idx]
		}

		if rest = strings.TrimSpace(rest); rest != "" {
			return rest
		}
	}

	return ""
}

// NormalizeIBAN strips spacing and upper-cases an IBAN cell.
func NormalizeIBAN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
