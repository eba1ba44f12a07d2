package dataprocessing

import (
	"strings"

	"expenditure/pkg/contracts/domain"
)

// fiscalYearLen is the length of a canonical "YYYY-YY" token
const fiscalYearLen = 7

// estimateSuffixes are budget and revised estimate markers appended to year labels
var estimateSuffixes = []string{" (BE)", " (RE)"}

// StandardizeYear canonicalizes a year label to "YYYY-YY".
// It returns false when the label is not text or has no hyphen in its first seven characters.
func StandardizeYear(label domain.Cell) (string, bool) {
	if !label.IsString() {
		return "", false
	}

	year := label.Text
	for _, suffix := range estimateSuffixes {
		year = strings.ReplaceAll(year, suffix, "")
	}

	runes := []rune(year)
	if len(runes) < fiscalYearLen {
		return "", false
	}
	token := string(runes[:fiscalYearLen])
	if !strings.Contains(token, "-") {
		return "", false
	}
	return token, true
}

// StandardizeYears rewrites every record's year label to its canonical token
// and drops records whose year cannot be standardized. The second return value
// is the number of dropped records.
func StandardizeYears(table *domain.NormalizedTable) (*domain.NormalizedTable, int) {
	out := &domain.NormalizedTable{
		Category: table.Category,
		Source:   table.Source,
		Records:  make([]domain.NormalizedRecord, 0, len(table.Records)),
	}
	dropped := 0
	for _, rec := range table.Records {
		year, ok := StandardizeYear(rec.Year)
		if !ok {
			dropped++
			continue
		}
		rec.Year = domain.StringCell(year)
		out.Records = append(out.Records, rec)
	}
	return out, dropped
}
