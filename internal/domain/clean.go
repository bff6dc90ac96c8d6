package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CurrencyOther is the survey answer for currencies outside the offered list.
// Rows with it cannot be converted and are dropped.
const CurrencyOther = "OTHER"

// SalaryRescaleThreshold is the bound below which a salary is assumed to be
// entered in thousands.
const SalaryRescaleThreshold = 1000.0

var nullSalaryTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"none": true,
}

var timestampLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts a raw submission timestamp. Unparseable input is null.
func ParseTimestamp(v Value) Value {
	if _, ok := v.Timestamp(); ok {
		return v
	}
	s, ok := v.Str()
	if !ok {
		return Null()
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time(t)
		}
	}
	return Null()
}

// CleanSalary parses a free-text salary answer. Thousands separators and "$"
// are stripped; values below SalaryRescaleThreshold are multiplied by 1000.
// Missing or unparseable answers are null.
func CleanSalary(v Value) Value {
	var val float64
	switch v.Kind() {
	case KindFloat:
		val, _ = v.Num()
	case KindString:
		s, _ := v.Str()
		s = strings.ToLower(strings.TrimSpace(s))
		if nullSalaryTokens[s] {
			return Null()
		}
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "$", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Null()
		}
		val = f
	default:
		return Null()
	}

	if val < SalaryRescaleThreshold {
		val *= 1000
	}
	return Float(val)
}

// bonusZero is written for a missing bonus, as text like answered bonuses.
const bonusZero = "0"

// CleanBonus coerces a missing bonus to 0 and passes anything else through.
func CleanBonus(v Value) Value {
	if v.IsNull() {
		return String(bonusZero)
	}
	if s, ok := v.Str(); ok && s == "" {
		return String(bonusZero)
	}
	return v
}

// BonusAmount returns the numeric bonus used for conversion. Text bonuses are
// parsed as plain numbers; no separators are stripped and no rescale applies.
func BonusAmount(v Value) (float64, bool) {
	if f, ok := v.Num(); ok {
		return f, true
	}
	s, ok := v.Str()
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NormalizeCurrency trims and upper-cases a currency answer. A missing answer
// becomes the literal "NAN", which never resolves to a rate.
func NormalizeCurrency(v Value) Value {
	if v.IsNull() {
		return String("NAN")
	}
	return String(cases.Upper(language.Und).String(strings.TrimSpace(v.Text())))
}

// lookupKey folds a free-text answer for alias table lookups.
func lookupKey(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// titleCase upper-cases the first cased letter of every run of cased letters
// and lower-cases the rest, so "st. louis" becomes "St. Louis" and
// "washington, dc" becomes "Washington, Dc".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		if prevCased {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToTitle(r))
		}
		prevCased = isCased(r)
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// isAllUpper reports whether s has at least one cased letter and none of
// them are lower or title case.
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
