package format

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"dailymoney/internal/core"
	"dailymoney/internal/remote"
)

// FormatCSV serializes a transaction set into the remote log format.
//
// Rows are deduplicated by second key (first occurrence wins) and sorted
// newest first. The timestamp column carries the rounded whole second in UTC,
// so serialize→parse is a fixed point once timestamps are rounded. The
// comment column is always quoted, with embedded quotes doubled.
func FormatCSV(transactions []core.Transaction) string {
	unique := make([]core.Transaction, 0, len(transactions))
	seen := make(map[int64]struct{}, len(transactions))
	for _, t := range transactions {
		key := t.SecondKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Timestamp > unique[j].Timestamp
	})

	var b strings.Builder
	b.WriteString(remote.Header)
	for _, t := range unique {
		comment := t.Category
		if !t.IsFreeDay() {
			comment = FormatCategory(t.Category)
		}
		b.WriteString(t.Instant().Format(time.RFC3339))
		b.WriteString(",")
		// The amount column is unquoted, so a comma decimal separator (which
		// AmountValue tolerates) would split the row. Normalize to a dot.
		b.WriteString(strings.ReplaceAll(t.Amount, ",", "."))
		b.WriteString(`,"`)
		b.WriteString(strings.ReplaceAll(comment, `"`, `""`))
		b.WriteString("\"\n")
	}
	return b.String()
}

// ParseCSV decodes a remote log document. Malformed rows are skipped
// individually; rows are deduplicated by second key, first occurrence wins.
//
// When the document holds data lines but none of them parse, the error is a
// remote.KindMalformedContent tag. Callers treat that as "no prior remote
// data" rather than aborting.
func ParseCSV(content string) ([]core.Transaction, error) {
	lines := strings.Split(content, "\n")
	if len(lines) <= 1 {
		return nil, nil
	}

	var transactions []core.Transaction
	seen := make(map[int64]struct{})
	attempted := 0
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		attempted++

		fields := splitRow(line)
		if len(fields) != 3 {
			slog.Debug("Skipping malformed log row", "fields", len(fields))
			continue
		}

		instant, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[0]))
		if err != nil {
			slog.Debug("Skipping log row with unparseable timestamp", "value", fields[0])
			continue
		}

		t := core.FromInstant(instant, strings.TrimSpace(fields[1]), stripSuffix(strings.TrimSpace(fields[2])))
		if _, dup := seen[t.SecondKey()]; dup {
			continue
		}
		seen[t.SecondKey()] = struct{}{}
		transactions = append(transactions, t)
	}

	if attempted > 0 && len(transactions) == 0 {
		return nil, remote.NewError(remote.KindMalformedContent, "parse log", nil)
	}
	return transactions, nil
}

// splitRow splits a CSV row on commas while respecting quoted segments: a
// quote toggles the in-quotes state and a doubled quote inside a quoted field
// is a literal quote.
func splitRow(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; c {
		case '"':
			if i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ',':
			if inQuotes {
				field.WriteByte(c)
			} else {
				fields = append(fields, field.String())
				field.Reset()
			}
		default:
			field.WriteByte(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}
