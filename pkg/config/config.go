// Package config loads the timetable sources configuration. Three root
// shapes are accepted (flat "sources", flat "programs", and
// "academicYears" buckets); they are resolved here, once, into a single
// canonical source list so nothing downstream ever branches on shape.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source is one configured timetable page to scrape.
type Source struct {
	AcademicYear string `json:"academicYear"`
	ProgramID    string `json:"programId"`
	Title        string `json:"title"`
	Year         int    `json:"year"`
	URL          string `json:"url"`
	Groups       []int  `json:"groups"`
}

type rawSource struct {
	AcademicYear string          `json:"academicYear"`
	ProgramID    string          `json:"programId"`
	LegacyID     string          `json:"id"`
	Title        string          `json:"title"`
	ProgramTitle string          `json:"programTitle"`
	Year         json.RawMessage `json:"year"`
	URL          string          `json:"url"`
	Groups       json.RawMessage `json:"groups"`
}

type rawYearBucket struct {
	AcademicYear string      `json:"academicYear"`
	Sources      []rawSource `json:"sources"`
	Programs     []rawSource `json:"programs"`
}

type rawRoot struct {
	AcademicYear        string          `json:"academicYear"`
	DefaultAcademicYear string          `json:"defaultAcademicYear"`
	Sources             []rawSource     `json:"sources"`
	Programs            []rawSource     `json:"programs"`
	AcademicYears       []rawYearBucket `json:"academicYears"`
}

// LoadSources reads and resolves a sources config file.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources resolves the raw config document into the canonical,
// merged, sorted source list.
func ParseSources(data []byte) ([]Source, error) {
	var root rawRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	defaultYear := strings.TrimSpace(root.AcademicYear)
	if defaultYear == "" {
		defaultYear = strings.TrimSpace(root.DefaultAcademicYear)
	}

	type sourceKey struct {
		academicYear string
		programID    string
		year         int
		url          string
	}
	byKey := map[sourceKey]*Source{}
	var order []sourceKey

	addMany := func(items []rawSource, defaultYear, label string) error {
		for i, raw := range items {
			parsed, err := parseSource(raw, defaultYear, fmt.Sprintf("%s[%d]", label, i))
			if err != nil {
				return err
			}
			key := sourceKey{parsed.AcademicYear, parsed.ProgramID, parsed.Year, parsed.URL}
			existing, ok := byKey[key]
			if !ok {
				byKey[key] = &parsed
				order = append(order, key)
				continue
			}
			existing.Groups = mergeGroups(existing.Groups, parsed.Groups)
			if existing.Title == "" {
				existing.Title = parsed.Title
			}
		}
		return nil
	}

	if err := addMany(root.Sources, defaultYear, "sources"); err != nil {
		return nil, err
	}
	if err := addMany(root.Programs, defaultYear, "programs"); err != nil {
		return nil, err
	}
	for i, bucket := range root.AcademicYears {
		bucketYear := strings.TrimSpace(bucket.AcademicYear)
		if bucketYear == "" {
			return nil, fmt.Errorf("academicYears[%d]: 'academicYear' is required", i)
		}
		if err := addMany(bucket.Sources, bucketYear, fmt.Sprintf("academicYears[%d].sources", i)); err != nil {
			return nil, err
		}
		if err := addMany(bucket.Programs, bucketYear, fmt.Sprintf("academicYears[%d].programs", i)); err != nil {
			return nil, err
		}
	}

	if len(byKey) == 0 {
		return nil, fmt.Errorf("no sources found; add 'programs', 'sources', or 'academicYears' in config")
	}

	sources := make([]Source, 0, len(byKey))
	for _, key := range order {
		sources = append(sources, *byKey[key])
	}
	sort.Slice(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.AcademicYear != b.AcademicYear {
			return a.AcademicYear < b.AcademicYear
		}
		if a.ProgramID != b.ProgramID {
			return a.ProgramID < b.ProgramID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.URL < b.URL
	})
	return sources, nil
}

func parseSource(raw rawSource, defaultYear, label string) (Source, error) {
	academicYear := strings.TrimSpace(raw.AcademicYear)
	if academicYear == "" {
		academicYear = defaultYear
	}
	if academicYear == "" {
		return Source{}, fmt.Errorf("%s: 'academicYear' is required", label)
	}

	programID := strings.TrimSpace(raw.ProgramID)
	if programID == "" {
		programID = strings.TrimSpace(raw.LegacyID)
	}
	if programID == "" {
		return Source{}, fmt.Errorf("%s: 'programId' is required", label)
	}

	url := strings.TrimSpace(raw.URL)
	if url == "" {
		return Source{}, fmt.Errorf("%s: 'url' is required", label)
	}

	if len(raw.Year) == 0 {
		return Source{}, fmt.Errorf("%s: 'year' is required", label)
	}
	year, err := parseYear(raw.Year)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", label, err)
	}
	if year < 1 {
		return Source{}, fmt.Errorf("%s: 'year' must be >= 1", label)
	}

	groups, err := parseGroups(raw.Groups)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", label, err)
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.ProgramTitle)
	}
	if title == "" {
		title = TitleFromProgramID(programID)
	}

	return Source{
		AcademicYear: academicYear,
		ProgramID:    programID,
		Title:        title,
		Year:         year,
		URL:          url,
		Groups:       groups,
	}, nil
}

func parseYear(raw json.RawMessage) (int, error) {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if year, err := strconv.Atoi(number.String()); err == nil {
			return year, nil
		}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if year, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return year, nil
		}
	}
	return 0, fmt.Errorf("'year' must be an integer")
}

// parseGroups accepts either a JSON array of numbers/strings or a single
// comma-separated string, and returns sorted unique group numbers.
func parseGroups(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var parts []string
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		for _, part := range strings.Split(asString, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
	} else {
		var asList []json.RawMessage
		if err := json.Unmarshal(raw, &asList); err != nil {
			return nil, fmt.Errorf("'groups' must be a list or comma-separated string")
		}
		for _, item := range asList {
			var number json.Number
			if err := json.Unmarshal(item, &number); err == nil {
				parts = append(parts, number.String())
				continue
			}
			var text string
			if err := json.Unmarshal(item, &text); err != nil {
				return nil, fmt.Errorf("invalid group value %s", string(item))
			}
			parts = append(parts, strings.TrimSpace(text))
		}
	}

	set := map[int]bool{}
	for _, part := range parts {
		group, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid group value %q", part)
		}
		set[group] = true
	}
	groups := make([]int, 0, len(set))
	for group := range set {
		groups = append(groups, group)
	}
	sort.Ints(groups)
	return groups, nil
}

func mergeGroups(a, b []int) []int {
	set := map[int]bool{}
	for _, g := range a {
		set[g] = true
	}
	for _, g := range b {
		set[g] = true
	}
	merged := make([]int, 0, len(set))
	for g := range set {
		merged = append(merged, g)
	}
	sort.Ints(merged)
	return merged
}

var titleCaser = cases.Title(language.English)

// TitleFromProgramID derives a display title when config omits one, e.g.
// "informatica-maghiara" -> "Informatica Maghiara".
func TitleFromProgramID(programID string) string {
	var parts []string
	for _, part := range strings.FieldsFunc(programID, func(r rune) bool { return r == '-' || r == '_' }) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, titleCaser.String(part))
		}
	}
	return strings.Join(parts, " ")
}
