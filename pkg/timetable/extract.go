package timetable

import (
	"regexp"
	"strings"
	"unicode"
)

// Heuristics for slicing free-text timetable cells into entry fields.
// These only locate and strip text; canonical values are produced later
// by the normalizers.

var (
	groupNumberRE      = regexp.MustCompile(`\b(\d{3,4})\b`)
	groupHeadingRE     = regexp.MustCompile(`(?i)\bgrupa\s+(\d{3,4})\b`)
	typeTagRE          = regexp.MustCompile(`(?i)\((?:c|s|l)\)`)
	instructorTitleRE  = regexp.MustCompile(`(?i)\b(?:prof\.?|asist\.?|conf\.?|lect\.?|dr\.?)`)
	roomKeywordRE      = regexp.MustCompile(`(?i)\b(?:sala|room|amf(?:iteatru)?|aula|lab(?:orator)?)\b`)
	roomCaptureRE      = regexp.MustCompile(`(?i)\b(?:sala|room|amf(?:iteatru)?|aula|lab(?:orator)?)\s*[:\-]?\s*([A-Za-z0-9._/-]+)`)
	formationNumericRE = regexp.MustCompile(`^\d{3,4}(?:/\d+)?$`)
	formationTokenRE   = regexp.MustCompile(`^[A-Za-z]{1,6}\d{0,3}$`)
	roomishCodeRE      = regexp.MustCompile(`^(?:C|L)\d+[A-Z0-9._/-]*$`)
	subgroupPrefixRE   = regexp.MustCompile(`(?i)^(?:sgr\.?|subgr\.?|gr\.?)\s*[\w/-]+\s*:\s*`)
	freqWordRE         = regexp.MustCompile(`(?i)\b(?:week\s*[12]|weekly|sapt\.?\s*[12]?|impar(?:a)?|par(?:a)?)\b`)
	freqLineRE         = regexp.MustCompile(`\b(?:week\s*[12]|weekly|sapt|impar|par)\b`)
	chunkSplitRE       = regexp.MustCompile(`\n{2,}`)
	inlineEntryRE      = regexp.MustCompile(`(?i)^(?:(?:sapt\.?\s*[12]|week\s*[12])\s*:\s*)?(.+?)\s*\(([^()]+)\)\s*,\s*([A-Za-z0-9_./-]+)$`)
)

func stripSubgroupPrefix(line string) string {
	return strings.TrimSpace(subgroupPrefixRE.ReplaceAllString(CollapseSpace(line), ""))
}

func isFrequencyLine(line string) bool {
	return freqLineRE.MatchString(Fold(line))
}

func isTimeOrDayLine(line string) bool {
	cleaned := CollapseSpace(line)
	if IsTime(cleaned) {
		return true
	}
	return IsDay(cleaned) && len(strings.Fields(cleaned)) <= 2
}

// isFormationLine recognizes group/subgroup markers like "511", "511/2"
// or "IM1" that sometimes lead a cell, while keeping room codes out.
func isFormationLine(line string) bool {
	cleaned := strings.Trim(stripSubgroupPrefix(line), "() ")
	if cleaned == "" {
		return false
	}
	if formationNumericRE.MatchString(cleaned) {
		return true
	}
	if !formationTokenRE.MatchString(cleaned) {
		return false
	}
	upper := strings.ToUpper(cleaned)
	for _, prefix := range []string{"CR", "LAB", "AMF", "AULA", "ROOM", "SALA"} {
		if strings.HasPrefix(upper, prefix) {
			return false
		}
	}
	return !roomishCodeRE.MatchString(upper)
}

func isRoomLine(line string) bool {
	return roomKeywordRE.MatchString(line)
}

func isInstructorLine(line string) bool {
	if instructorTitleRE.MatchString(line) {
		return true
	}
	if isRoomLine(line) {
		return false
	}
	words := strings.Fields(line)
	if len(words) < 2 {
		return false
	}
	capitalized := 0
	for _, word := range words {
		if r := []rune(word)[0]; unicode.IsUpper(r) {
			capitalized++
		}
	}
	return capitalized >= 2 && !isFrequencyLine(line)
}

func detectRoom(lines []string) string {
	for _, line := range lines {
		if m := roomCaptureRE.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, line := range lines {
		if roomKeywordRE.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}
	for _, line := range lines {
		token := CollapseSpace(line)
		if token == "" || strings.Contains(token, " ") {
			continue
		}
		if isFrequencyLine(token) || isFormationLine(token) || isTimeOrDayLine(token) {
			continue
		}
		if instructorTitleRE.MatchString(token) {
			continue
		}
		return token
	}
	return ""
}

func detectInstructor(lines []string) string {
	for _, line := range lines {
		if instructorTitleRE.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}
	for _, line := range lines {
		if isInstructorLine(line) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// stripInlineMetadata removes subgroup prefixes, type tags and frequency
// words from a course line.
func stripInlineMetadata(value string) string {
	value = stripSubgroupPrefix(value)
	value = typeTagRE.ReplaceAllString(value, "")
	value = freqWordRE.ReplaceAllString(value, "")
	return strings.Trim(CollapseSpace(value), " -")
}

func detectCourse(lines []string) string {
	for _, line := range lines {
		if isFrequencyLine(line) || isRoomLine(line) || isInstructorLine(line) || isFormationLine(line) {
			continue
		}
		if cleaned := stripInlineMetadata(line); cleaned != "" {
			return cleaned
		}
	}
	for _, line := range lines {
		cleaned := stripInlineMetadata(line)
		if cleaned != "" && !isFormationLine(cleaned) {
			return cleaned
		}
	}
	return ""
}

func splitCellChunks(text string) []string {
	var chunks []string
	for _, chunk := range chunkSplitRE.Split(text, -1) {
		if chunk = CollapseLines(chunk); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// parseInlineEntryLine matches the compact "course (instructor), room"
// form, with an optional "sapt N:" prefix.
func parseInlineEntryLine(line, timeSlot string) (RawEntry, bool) {
	cleaned := CollapseSpace(line)
	if cleaned == "" {
		return RawEntry{}, false
	}
	stripped := stripSubgroupPrefix(cleaned)
	m := inlineEntryRE.FindStringSubmatch(stripped)
	if m == nil {
		return RawEntry{}, false
	}
	course := stripInlineMetadata(m[1])
	if course == "" {
		return RawEntry{}, false
	}
	return RawEntry{
		TimeRaw:    timeSlot,
		FreqRaw:    stripped,
		Course:     course,
		TypeRaw:    stripped,
		Room:       CollapseSpace(m[3]),
		Instructor: CollapseSpace(m[2]),
	}, true
}

// parseCellEntries slices one columnar-layout cell into raw entries. A
// cell can hold several sessions separated by blank lines, or a compact
// inline list. Day and time echoes, placeholders and formation markers
// yield nothing.
func parseCellEntries(text, timeSlot string) []RawEntry {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" || text == "—" {
		return nil
	}
	if IsDay(text) && len(strings.Fields(text)) <= 2 {
		return nil
	}
	if IsTime(text) {
		return nil
	}

	var entries []RawEntry
	for _, chunk := range splitCellChunks(text) {
		var inline []RawEntry
		for _, line := range strings.Split(chunk, "\n") {
			if entry, ok := parseInlineEntryLine(line, timeSlot); ok {
				inline = append(inline, entry)
			}
		}
		if len(inline) > 0 {
			entries = append(entries, inline...)
			continue
		}

		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if line == "" || IsDay(line) && len(strings.Fields(line)) <= 2 {
				continue
			}
			if IsTime(line) || isFormationLine(line) {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		entries = append(entries, RawEntry{
			TimeRaw:    timeSlot,
			FreqRaw:    chunk,
			Course:     detectCourse(lines),
			TypeRaw:    chunk,
			Room:       detectRoom(lines),
			Instructor: detectInstructor(lines),
		})
	}
	return entries
}
