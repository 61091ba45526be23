package timetable

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/PuerkitoBio/goquery"
)

type entryKey struct {
	time       string
	frequency  Frequency
	course     string
	entryType  EntryType
	room       string
	instructor string
}

// Parse turns one timetable page into per-group day schedules. Rows
// whose tokens fail normalization are dropped with a warning; the page
// as a whole fails only when a layout was detected but no row survived.
func Parse(html []byte, expectedGroups []int) (*ParsedTimetable, []string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	layout, err := DetectLayout(doc, expectedGroups)
	if err != nil {
		return nil, nil, err
	}

	raw, warnings := layout.Extract()

	grouped := map[int]map[Day][]Entry{}
	seen := map[int]map[Day]map[entryKey]bool{}
	total := 0
	for _, r := range raw {
		day, err := NormalizeDay(r.DayRaw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("group %d: dropped row: %v", r.Group, err))
			continue
		}
		entryType, err := NormalizeType(r.TypeRaw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("group %d %s: dropped %q: %v", r.Group, day, r.Course, err))
			continue
		}
		if r.Course == "" {
			warnings = append(warnings, fmt.Sprintf("group %d %s: dropped row without a course", r.Group, day))
			continue
		}

		entry := Entry{
			Time:       NormalizeTime(r.TimeRaw),
			Frequency:  DetectFrequency(r.FreqRaw),
			Course:     r.Course,
			Type:       entryType,
			Room:       r.Room,
			Instructor: r.Instructor,
		}
		key := entryKey{entry.Time, entry.Frequency, entry.Course, entry.Type, entry.Room, entry.Instructor}
		if seen[r.Group] == nil {
			seen[r.Group] = map[Day]map[entryKey]bool{}
			grouped[r.Group] = map[Day][]Entry{}
		}
		if seen[r.Group][day] == nil {
			seen[r.Group][day] = map[entryKey]bool{}
		}
		if seen[r.Group][day][key] {
			continue // duplicates from merged cells are expected, first wins
		}
		seen[r.Group][day][key] = true
		grouped[r.Group][day] = append(grouped[r.Group][day], entry)
		total++
	}

	if total == 0 {
		return nil, warnings, fmt.Errorf("%s layout detected but no usable rows were extracted", layout.Name())
	}

	detected := layout.DetectedGroups()
	targets := expectedGroups
	if len(targets) == 0 {
		targets = detected
	}
	targets = uniqueSorted(targets)

	byGroup := make(map[int][]DaySchedule, len(targets))
	for _, group := range targets {
		var days []DaySchedule
		for _, day := range DayOrder {
			entries := grouped[group][day]
			if len(entries) > 0 {
				days = append(days, DaySchedule{Day: day, Entries: entries})
			}
		}
		byGroup[group] = days
	}

	return &ParsedTimetable{ByGroup: byGroup, DetectedGroups: detected}, warnings, nil
}

func uniqueSorted(values []int) []int {
	set := map[int]bool{}
	for _, v := range values {
		set[v] = true
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
