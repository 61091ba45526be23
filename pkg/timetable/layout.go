package timetable

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupportedLayout is returned when a page matches neither supported
// table arrangement.
var ErrUnsupportedLayout = errors.New("unsupported timetable layout")

// Layout is one detected table arrangement, ready to emit raw entries.
// Extract runs a single forward pass and also reports per-row warnings
// for text it had to skip.
type Layout interface {
	Name() string
	Extract() ([]RawEntry, []string)
	DetectedGroups() []int
}

// DetectLayout classifies the page structurally. Group-sectioned pages
// ("Grupa N" headings with one table per group) win over the columnar
// arrangement (one big table with a group-number header row).
func DetectLayout(doc *goquery.Document, expectedGroups []int) (Layout, error) {
	if sectioned := detectGroupSections(doc, expectedGroups); sectioned != nil {
		return sectioned, nil
	}
	columnar, err := detectColumnar(doc, expectedGroups)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLayout, err)
	}
	return columnar, nil
}

var headerPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"day", regexp.MustCompile(`\bziua\b|\bday\b`)},
	{"time", regexp.MustCompile(`\bora\b|\borele\b|\btime\b`)},
	{"frequency", regexp.MustCompile(`\bfrecventa\b|\bfrequency\b`)},
	{"room", regexp.MustCompile(`\bsala\b|\broom\b`)},
	{"type", regexp.MustCompile(`\btip(?:ul)?\b|\btype\b`)},
	{"course", regexp.MustCompile(`\bdisciplina\b|\bmateria\b|\bcourse\b`)},
	{"instructor", regexp.MustCompile(`\bcadr(?:ul)?\s+didactic\b|\binstructor\b|\bprofesor\b`)},
}

func headerKey(cell string) string {
	folded := Fold(cell)
	for _, p := range headerPatterns {
		if p.re.MatchString(folded) {
			return p.key
		}
	}
	return ""
}

// GroupSectioned is the "Grupa N" heading layout: one table per group,
// each with its own labeled header row.
type GroupSectioned struct {
	entries  []RawEntry
	warnings []string
	groups   []int
}

func (g *GroupSectioned) Name() string { return "group-sectioned" }

func (g *GroupSectioned) Extract() ([]RawEntry, []string) { return g.entries, g.warnings }

func (g *GroupSectioned) DetectedGroups() []int { return g.groups }

func extractGroupHeading(text string) (int, bool) {
	m := groupHeadingRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractTableGroup finds the group a table belongs to, trying its
// caption, its first rows, then up to six preceding siblings.
func extractTableGroup(table *goquery.Selection) (int, bool) {
	if caption := table.Find("caption").First(); caption.Length() > 0 {
		if group, ok := extractGroupHeading(FlatText(caption)); ok {
			return group, true
		}
	}
	found := 0
	table.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if i >= 3 {
			return false
		}
		if group, ok := extractGroupHeading(FlatText(tr)); ok {
			found = group
			return false
		}
		return true
	})
	if found != 0 {
		return found, true
	}
	sibling := table.Prev()
	for hop := 0; hop < 6 && sibling.Length() > 0; hop++ {
		if group, ok := extractGroupHeading(FlatText(sibling)); ok {
			return group, true
		}
		sibling = sibling.Prev()
	}
	return 0, false
}

func detectGroupSections(doc *goquery.Document, expectedGroups []int) *GroupSectioned {
	expected := intSet(expectedGroups)
	sectioned := &GroupSectioned{}
	seen := map[int]bool{}
	currentGroup := 0
	haveCurrent := false

	doc.Find("h1,h2,h3,h4,h5,h6,p,div,strong,b,table").Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) != "table" {
			if group, ok := extractGroupHeading(FlatText(node)); ok {
				currentGroup = group
				haveCurrent = true
			}
			return
		}

		tableGroup, ok := extractTableGroup(node)
		if !ok {
			if !haveCurrent {
				return
			}
			tableGroup = currentGroup
		}
		if len(expected) > 0 && !expected[tableGroup] {
			return
		}

		grid := ExpandTable(node)
		if len(grid) == 0 {
			return
		}
		rows, warnings := parseGroupTableRows(grid, tableGroup)
		if len(rows) == 0 {
			return
		}
		seen[tableGroup] = true
		sectioned.entries = append(sectioned.entries, rows...)
		sectioned.warnings = append(sectioned.warnings, warnings...)
	})

	if len(seen) == 0 {
		return nil
	}
	sectioned.groups = sortedKeys(seen)
	return sectioned
}

// parseGroupTableRows maps a sectioned table's header row to columns and
// slices every data row below it. Day and time columns are mandatory.
func parseGroupTableRows(grid [][]string, group int) ([]RawEntry, []string) {
	bestIdx := -1
	bestScore := -1
	var bestMap map[string]int

	scanLimit := len(grid)
	if scanLimit > 4 {
		scanLimit = 4
	}
	for idx := 0; idx < scanLimit; idx++ {
		mapping := map[string]int{}
		for col, cell := range grid[idx] {
			key := headerKey(cell)
			if key == "" {
				continue
			}
			if _, taken := mapping[key]; !taken {
				mapping[key] = col
			}
		}
		if len(mapping) > bestScore {
			bestScore = len(mapping)
			bestIdx = idx
			bestMap = mapping
		}
	}

	if len(bestMap) == 0 {
		return nil, nil
	}
	dayCol, hasDay := bestMap["day"]
	timeCol, hasTime := bestMap["time"]
	if !hasDay || !hasTime {
		return nil, nil
	}

	colValue := func(row []string, key string) string {
		col, ok := bestMap[key]
		if !ok || col >= len(row) {
			return ""
		}
		return row[col]
	}

	var entries []RawEntry
	var warnings []string
	for _, row := range grid[bestIdx+1:] {
		if dayCol >= len(row) || timeCol >= len(row) {
			continue
		}
		if !IsDay(row[dayCol]) {
			continue // header echo or decorative row
		}
		timeSlot := FindTime(row[timeCol])
		if timeSlot == "" {
			warnings = append(warnings, fmt.Sprintf("group %d: row for %q has no time range", group, CollapseSpace(row[dayCol])))
			continue
		}

		var fallback []string
		rowBlob := ""
		for _, cell := range row {
			if cell != "" {
				fallback = append(fallback, cell)
			}
		}
		rowBlob = strings.Join(fallback, " ")

		course := CollapseSpace(colValue(row, "course"))
		if course == "" {
			course = detectCourse(fallback)
		}
		if course == "" {
			warnings = append(warnings, fmt.Sprintf("group %d: row for %q has no course", group, CollapseSpace(row[dayCol])))
			continue
		}
		room := CollapseSpace(colValue(row, "room"))
		if room == "" {
			room = detectRoom(fallback)
		}
		instructor := CollapseSpace(colValue(row, "instructor"))
		if instructor == "" {
			instructor = detectInstructor(fallback)
		}
		freqRaw := colValue(row, "frequency")
		if freqRaw == "" {
			freqRaw = rowBlob
		}
		typeRaw := colValue(row, "type")
		if typeRaw == "" {
			typeRaw = rowBlob
		}

		entries = append(entries, RawEntry{
			Group:      group,
			DayRaw:     row[dayCol],
			TimeRaw:    timeSlot,
			FreqRaw:    freqRaw,
			TypeRaw:    typeRaw,
			Course:     course,
			Room:       room,
			Instructor: instructor,
		})
	}
	return entries, warnings
}

// Columnar is the classic layout: one table, a header row of group
// numbers, day cells spanning rows on the left and one column per group.
type Columnar struct {
	grid    [][]string
	columns map[int]int // column index -> group
}

func (c *Columnar) Name() string { return "columnar" }

func (c *Columnar) DetectedGroups() []int {
	seen := map[int]bool{}
	for _, group := range c.columns {
		seen[group] = true
	}
	return sortedKeys(seen)
}

func (c *Columnar) Extract() ([]RawEntry, []string) {
	cols := make([]int, 0, len(c.columns))
	for col := range c.columns {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	var entries []RawEntry
	var warnings []string
	currentDay := ""
	for _, row := range c.grid {
		for _, cell := range row {
			if IsDay(cell) {
				currentDay = cell
				break
			}
		}
		if currentDay == "" {
			continue
		}
		timeSlot := ""
		for _, cell := range row {
			if timeSlot = FindTime(cell); timeSlot != "" {
				break
			}
		}
		if timeSlot == "" {
			continue
		}
		for _, col := range cols {
			if col >= len(row) {
				continue
			}
			cellEntries := parseCellEntries(row[col], timeSlot)
			for i := range cellEntries {
				cellEntries[i].Group = c.columns[col]
				cellEntries[i].DayRaw = currentDay
			}
			if len(cellEntries) == 0 {
				if text := CollapseLines(row[col]); text != "" && text != "-" && text != "—" && !IsTime(text) &&
					!(IsDay(text) && len(strings.Fields(text)) <= 2) {
					warnings = append(warnings, fmt.Sprintf("group %d: skipped unparsable cell at %s: %q",
						c.columns[col], timeSlot, CollapseSpace(text)))
				}
				continue
			}
			entries = append(entries, cellEntries...)
		}
	}
	return entries, warnings
}

func detectColumnar(doc *goquery.Document, expectedGroups []int) (*Columnar, error) {
	table, err := selectMainTable(doc)
	if err != nil {
		return nil, err
	}
	grid := ExpandTable(table)
	if len(grid) == 0 {
		return nil, errors.New("timetable table is empty")
	}
	columns := detectGroupColumns(grid, expectedGroups)
	if len(columns) == 0 {
		return nil, errors.New("could not detect group columns in timetable table")
	}
	return &Columnar{grid: grid, columns: columns}, nil
}

// selectMainTable picks the most timetable-looking table by scoring day
// tokens, group numbers, and row count.
func selectMainTable(doc *goquery.Document) (*goquery.Selection, error) {
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, errors.New("no table was found on the source page")
	}
	var best *goquery.Selection
	bestScore := -1
	tables.Each(func(_ int, table *goquery.Selection) {
		text := Fold(FlatText(table))
		dayHits := 0
		for alias := range dayAliases {
			if strings.Contains(text, alias) {
				dayHits++
			}
		}
		groupHits := len(groupNumberRE.FindAllString(text, -1))
		if groupHits > 40 {
			groupHits = 40
		}
		score := dayHits*10 + groupHits + table.Find("tr").Length()
		if score > bestScore {
			bestScore = score
			best = table
		}
	})
	return best, nil
}

func extractGroupFromHeader(cell string, expected map[int]bool) (int, bool) {
	matches := groupNumberRE.FindAllString(cell, -1)
	if len(matches) == 0 {
		return 0, false
	}
	if len(expected) > 0 {
		for _, raw := range matches {
			if n, err := strconv.Atoi(raw); err == nil && expected[n] {
				return n, true
			}
		}
		return 0, false
	}
	if len(matches) == 1 {
		n, err := strconv.Atoi(matches[0])
		return n, err == nil
	}
	return 0, false
}

// detectGroupColumns maps table columns to group numbers from the best
// header row within the first rows. When headers are malformed but
// groups are configured, the trailing columns are assumed to line up
// with the configured groups.
func detectGroupColumns(grid [][]string, expectedGroups []int) map[int]int {
	expected := intSet(expectedGroups)
	best := map[int]int{}
	scanLimit := len(grid)
	if scanLimit > 12 {
		scanLimit = 12
	}
	for _, row := range grid[:scanLimit] {
		mapping := map[int]int{}
		for col, cell := range row {
			if group, ok := extractGroupFromHeader(cell, expected); ok {
				mapping[col] = group
			}
		}
		if len(mapping) > len(best) {
			best = mapping
		}
	}

	if len(expected) > 0 {
		for col, group := range best {
			if !expected[group] {
				delete(best, col)
			}
		}
	}
	if len(best) > 0 {
		return best
	}

	if len(expected) > 0 && len(grid) > 0 {
		sorted := sortedKeys(expected)
		firstRowLen := len(grid[0])
		start := firstRowLen - len(sorted)
		if start < 0 {
			start = 0
		}
		fallback := map[int]int{}
		for i, col := 0, start; col < firstRowLen && i < len(sorted); i, col = i+1, col+1 {
			fallback[col] = sorted[i]
		}
		return fallback
	}
	return map[int]int{}
}

func intSet(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
