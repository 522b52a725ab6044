// Package format is the pure text codec for the transaction log: the
// human-readable grouped report used for export, and the CSV wire format the
// remote document carries.
package format

import (
	"sort"
	"strings"
	"time"

	"dailymoney/internal/core"
)

// suffixRule maps base categories onto a reporting suffix. The table is the
// single place the suffix encoding lives; FormatCategory applies it and
// stripSuffix inverts it on re-import.
type suffixRule struct {
	suffix string
	bases  []string
}

var suffixRules = []suffixRule{
	{suffix: " food", bases: []string{"продукты", "доставка"}},
	{suffix: " alco", bases: []string{"алкоголь", "кальян"}},
}

var monthNames = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// FormatCategory appends the reporting suffix for categories the table knows.
// The match is case-insensitive; the suffix attaches to the original-cased
// string. The stored category is never mutated.
func FormatCategory(category string) string {
	lower := strings.ToLower(category)
	for _, rule := range suffixRules {
		for _, base := range rule.bases {
			if lower == base {
				return category + rule.suffix
			}
		}
	}
	return category
}

// stripSuffix removes a reporting suffix to recover the base category.
func stripSuffix(comment string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(comment, rule.suffix) {
			return strings.TrimSuffix(comment, rule.suffix)
		}
	}
	return comment
}

// GroupByDate buckets transactions by local calendar day (key YYYY-MM-DD),
// each bucket sorted newest first.
func GroupByDate(transactions []core.Transaction) map[string][]core.Transaction {
	grouped := make(map[string][]core.Transaction)
	for _, t := range transactions {
		key := dateKey(t.Date)
		grouped[key] = append(grouped[key], t)
	}
	for key := range grouped {
		bucket := grouped[key]
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].Timestamp > bucket[j].Timestamp
		})
	}
	return grouped
}

// FormatTransactions renders the full log grouped by month then by day,
// newest first. A day holding only the free-day placeholder collapses to a
// single "0 бесплатный день" line.
func FormatTransactions(transactions []core.Transaction) string {
	if len(transactions) == 0 {
		return ""
	}

	grouped := GroupByDate(transactions)
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var b strings.Builder
	currentMonth := ""
	for _, key := range keys {
		day, err := time.ParseInLocation("2006-01-02", key, time.Local)
		if err != nil {
			continue
		}
		if monthKey := day.Format("2006-01"); monthKey != currentMonth {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(monthNames[day.Month()-1])
			b.WriteString("\n")
			currentMonth = monthKey
		}
		b.WriteString("\n")
		writeDay(&b, day, grouped[key])
	}
	return b.String()
}

// FormatTransactionsForDate renders a single calendar day, used for the
// one-day clipboard copy.
func FormatTransactionsForDate(transactions []core.Transaction, targetDate time.Time) string {
	target := dateKey(targetDate)
	var day []core.Transaction
	for _, t := range transactions {
		if dateKey(t.Date) == target {
			day = append(day, t)
		}
	}
	if len(day) == 0 {
		return ""
	}
	sort.Slice(day, func(i, j int) bool { return day[i].Timestamp > day[j].Timestamp })

	var b strings.Builder
	writeDay(&b, targetDate, day)
	return b.String()
}

func writeDay(b *strings.Builder, day time.Time, transactions []core.Transaction) {
	b.WriteString(day.Format("02.01.06"))
	b.WriteString("\n")

	var total float64
	hasFreeDay := false
	for _, t := range transactions {
		if t.IsFreeDay() {
			hasFreeDay = true
			continue
		}
		total += t.AmountValue()
	}

	if total == 0 && hasFreeDay {
		b.WriteString("0 " + core.FreeDayCategory + "\n")
		return
	}
	for _, t := range transactions {
		if t.IsFreeDay() {
			continue
		}
		b.WriteString(t.Amount)
		b.WriteString(" ")
		b.WriteString(FormatCategory(t.Category))
		b.WriteString("\n")
	}
}

func dateKey(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02")
}
