package timetable

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizationError reports a token that could not be mapped to a
// canonical value. Rows carrying one are dropped with a warning, they
// never silently default.
type NormalizationError struct {
	Kind  string // "day", "type", "time"
	Token string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("unrecognized %s token %q", e.Kind, e.Token)
}

// dayAliases maps folded Romanian/English/Hungarian day tokens to
// canonical days. Lookup is by word token, so "Luni." and "LUNI" both hit.
var dayAliases = map[string]Day{
	"luni":      Monday,
	"monday":    Monday,
	"mon":       Monday,
	"hetfo":     Monday,
	"marti":     Tuesday,
	"tuesday":   Tuesday,
	"tue":       Tuesday,
	"kedd":      Tuesday,
	"miercuri":  Wednesday,
	"wednesday": Wednesday,
	"wed":       Wednesday,
	"szerda":    Wednesday,
	"joi":       Thursday,
	"thursday":  Thursday,
	"thu":       Thursday,
	"csutortok": Thursday,
	"vineri":    Friday,
	"friday":    Friday,
	"fri":       Friday,
	"pentek":    Friday,
}

var (
	timeRE  = regexp.MustCompile(`\b(\d{1,2}(?::\d{2})?\s*[-–—−]\s*\d{1,2}(?::\d{2})?)\b`)
	dashRE  = regexp.MustCompile(`[-–—−]`)
	wordRE  = regexp.MustCompile(`[a-z0-9]+`)
	spaceRE = regexp.MustCompile(`\s+`)

	week1RE  = regexp.MustCompile(`\b(?:week\s*1|sapt\.?\s*1|saptamana\s*1|impar(?:a)?)\b|\(\s*1\s*\)`)
	week2RE  = regexp.MustCompile(`\b(?:week\s*2|sapt\.?\s*2|saptamana\s*2|par(?:a)?)\b|\(\s*2\s*\)`)
	weeklyRE = regexp.MustCompile(`\b(?:weekly|saptamanal)\b`)

	lectureTagRE = regexp.MustCompile(`(?i)\((?:c|curs)\)`)
	seminarTagRE = regexp.MustCompile(`(?i)\((?:s|sem)\)`)
	labTagRE     = regexp.MustCompile(`(?i)\((?:l|lab)\)`)
	lectureRE    = regexp.MustCompile(`\b(?:lecture|course|curs)\b`)
	seminarRE    = regexp.MustCompile(`\bsem(?:inar)?\b`)
	labRE        = regexp.MustCompile(`\b(?:lab|laborator)\b`)
)

var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips diacritics and lowercases, so "Marți" and "marţi" compare
// equal to "marti".
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// CollapseSpace trims and squeezes all whitespace runs to single spaces.
// With keepNewlines it instead normalizes per line and drops blank lines.
func CollapseSpace(s string) string {
	return spaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// CollapseLines normalizes each line and drops empty ones.
func CollapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = CollapseSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// NormalizeDay maps a day label in any supported language to its
// canonical value.
func NormalizeDay(s string) (Day, error) {
	for _, token := range wordRE.FindAllString(Fold(CollapseSpace(s)), -1) {
		if day, ok := dayAliases[token]; ok {
			return day, nil
		}
	}
	return "", &NormalizationError{Kind: "day", Token: CollapseSpace(s)}
}

// IsDay reports whether the text contains a recognizable day token.
func IsDay(s string) bool {
	_, err := NormalizeDay(s)
	return err == nil
}

// DetectFrequency finds alternating-week markers in free text. Text
// mentioning both weeks, or no week at all, is a weekly session.
func DetectFrequency(s string) Frequency {
	folded := Fold(s)
	has1 := week1RE.MatchString(folded)
	has2 := week2RE.MatchString(folded)
	switch {
	case has1 && has2:
		return Weekly
	case has1:
		return Week1
	case has2:
		return Week2
	case weeklyRE.MatchString(folded):
		return Weekly
	}
	return Weekly
}

// NormalizeType maps a session-type marker to its canonical value.
// Parenthesized tags win over keywords.
func NormalizeType(s string) (EntryType, error) {
	switch {
	case lectureTagRE.MatchString(s):
		return Lecture, nil
	case seminarTagRE.MatchString(s):
		return Seminar, nil
	case labTagRE.MatchString(s):
		return Lab, nil
	}
	folded := Fold(s)
	switch {
	case lectureRE.MatchString(folded):
		return Lecture, nil
	case seminarRE.MatchString(folded):
		return Seminar, nil
	case labRE.MatchString(folded):
		return Lab, nil
	}
	return "", &NormalizationError{Kind: "type", Token: CollapseSpace(s)}
}

// NormalizeTime collapses whitespace and unicode dash variants into the
// canonical "start-end" form, keeping the source's granularity (bare
// hours stay bare hours).
func NormalizeTime(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	return dashRE.ReplaceAllString(s, "-")
}

// FindTime returns the first time range in the text, normalized, or "".
func FindTime(s string) string {
	match := timeRE.FindStringSubmatch(s)
	if match == nil {
		return ""
	}
	return NormalizeTime(match[1])
}

// IsTime reports whether the whole text is a single time range.
func IsTime(s string) bool {
	cleaned := CollapseSpace(s)
	loc := timeRE.FindStringIndex(cleaned)
	return loc != nil && loc[0] == 0 && loc[1] == len(cleaned)
}
