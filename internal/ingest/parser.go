package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/mietwerk/rentledger/internal/domain"
)

// SkippedRow records a statement line that was excluded from the import,
// with the reason it was dropped. Exclusion is a soft failure: the rest of
// the file still imports.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

// Result is the output of parsing one statement file.
type Result struct {
	Headers      []string
	Delimiter    rune
	Mapping      ColumnMapping
	MappingFrom  MappingSource
	Transactions []*domain.Transaction
	Skipped      []SkippedRow
}

// MappingSource records where the column mapping came from.
type MappingSource string

const (
	MappingSourceRemembered MappingSource = "remembered"
	MappingSourceDetected   MappingSource = "detected"
)

// DetectDelimiter chooses the field delimiter from the header line by
// counting `;` and `,` occurrences. Ties favor `;`. The chosen delimiter
// applies to every line of the file.
func DetectDelimiter(line string) rune {
	if strings.Count(line, ",") > strings.Count(line, ";") {
		return ','
	}

	return ';'
}

// SplitLine splits one statement line on delim, honoring double quotes: a
// quote toggles quoted mode and delimiters inside quotes are literal.
// Surrounding quotes are stripped from each field.
func SplitLine(line string, delim rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			field.WriteRune(r)
		case r == delim && !inQuotes:
			fields = append(fields, cleanField(field.String()))
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}

	fields = append(fields, cleanField(field.String()))

	return fields
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)

	return strings.TrimSpace(s)
}

// ParseStatement parses delimited statement text into transactions for an
// account. A remembered mapping, when given and still valid for the current
// header set, takes precedence over auto-detection. Rows without a parsable
// booking date and amount are excluded, each with a recorded reason.
func ParseStatement(accountID, content string, remembered *ColumnMapping) (*Result, error) {
	if err := domain.ValidateStatement(content); err != nil {
		return nil, err
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, domain.ErrEmptyStatement
	}

	delim := DetectDelimiter(lines[0])
	headers := SplitLine(lines[0], delim)

	result := &Result{
		Headers:     headers,
		Delimiter:   delim,
		MappingFrom: MappingSourceDetected,
	}

	result.Mapping = DetectMapping(headers)
	if remembered != nil {
		if err := remembered.Validate(headers); err == nil {
			result.Mapping = *remembered
			result.MappingFrom = MappingSourceRemembered
		}
	}

	if !result.Mapping.HasRequired() {
		result.Skipped = append(result.Skipped, SkippedRow{
			Line:   1,
			Reason: "no booking date or amount column detected",
			Raw:    lines[0],
		})

		return result, nil
	}

	now := time.Now().UTC()
	for i, line := range lines[1:] {
		lineNo := i + 2

		txn, reason := parseRow(headers, line, delim, result.Mapping)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedRow{
				Line:   lineNo,
				Reason: reason,
				Raw:    line,
			})

			continue
		}

		txn.AccountID = accountID
		txn.CreatedAt = now
		result.Transactions = append(result.Transactions, txn)
	}

	return result, nil
}

// parseRow converts one statement line to a transaction. A non-empty reason
// means the row is excluded.
func parseRow(headers []string, line string, delim rune, mapping ColumnMapping) (*domain.Transaction, string) {
	fields := SplitLine(line, delim)

	cells := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(fields) {
			cells[header] = fields[i]
		}
	}

	bookingDate, err := ParseDate(cells[mapping.BookingDate])
	if err != nil {
		return nil, fmt.Sprintf("invalid booking date %q", cells[mapping.BookingDate])
	}

	amount, err := ParseLocalizedAmount(cells[mapping.Amount])
	if err != nil {
		return nil, fmt.Sprintf("unparsable amount %q", cells[mapping.Amount])
	}

	txn := &domain.Transaction{
		BookingDate: bookingDate,
		Amount:      amount,
		Description: cells[mapping.Description],
	}

	if v := cells[mapping.ValueDate]; mapping.ValueDate != "" && v != "" {
		if valueDate, err := ParseDate(v); err == nil {
			txn.ValueDate = &valueDate
		}
	}

	txn.SenderReceiver = cells[mapping.SenderReceiver]
	txn.Reference = cells[mapping.Reference]
	txn.IBAN = NormalizeIBAN(cells[mapping.IBAN])

	// When the export folds everything into one description column, derive
	// sender and reference from it.
	if txn.SenderReceiver == "" {
		txn.SenderReceiver = ExtractSender(txn.Description)
	}

	if txn.Reference == "" {
		txn.Reference = ExtractReference(txn.Description)
	}

	return txn, ""
}

func splitLines(content string) []string {
	var lines []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		lines = append(lines, line)
	}

	return lines
}
