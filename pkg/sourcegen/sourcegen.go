// Package sourcegen generates a sources config by crawling the faculty's
// timetable index page, so a new semester's config does not have to be
// typed out by hand.
package sourcegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ronuhz/ubborarservice/pkg/scraper"
	"github.com/Ronuhz/ubborarservice/pkg/timetable"
)

var (
	yearRE    = regexp.MustCompile(`\b(?:an(?:ul)?\s*)?([1-6])\b`)
	nonSlugRE = regexp.MustCompile(`[^a-z0-9]+`)
)

// ProgramMapping overrides the generated id/title for one program. In
// config it may be a bare string (the id) or an object with id and
// title.
type ProgramMapping struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UnmarshalJSON accepts both the string and the object form.
func (m *ProgramMapping) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		m.ID = strings.TrimSpace(id)
		return nil
	}
	type plain ProgramMapping
	return json.Unmarshal(data, (*plain)(m))
}

// LoadProgramMap reads an optional id/title override map keyed by source
// title or title slug.
func LoadProgramMap(path string) (map[string]ProgramMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program map: %w", err)
	}
	var programMap map[string]ProgramMapping
	if err := json.Unmarshal(data, &programMap); err != nil {
		return nil, fmt.Errorf("failed to parse program map: %w", err)
	}
	return programMap, nil
}

// Options configure one generation run.
type Options struct {
	IndexURL      string
	AcademicYear  string
	ProgramMap    map[string]ProgramMapping
	IncludeMaster bool
	DetectGroups  bool
}

// GeneratedSource is one config entry produced by the crawler.
type GeneratedSource struct {
	ProgramID string `json:"programId"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	URL       string `json:"url"`
	Groups    []int  `json:"groups"`
}

// SourcesFile is the emitted config document, in the "programs" root
// shape the config loader accepts.
type SourcesFile struct {
	AcademicYear string            `json:"academicYear"`
	Programs     []GeneratedSource `json:"programs"`
}

// Slugify folds a program title into a stable id.
func Slugify(title string) string {
	slug := strings.Trim(nonSlugRE.ReplaceAllString(timetable.Fold(title), "-"), "-")
	if slug == "" {
		return "program"
	}
	return slug
}

func resolveProgram(title string, programMap map[string]ProgramMapping) (string, string) {
	mapping, ok := programMap[title]
	if !ok {
		mapping, ok = programMap[Slugify(title)]
	}
	if ok && mapping.ID != "" {
		mappedTitle := strings.TrimSpace(mapping.Title)
		if mappedTitle == "" {
			mappedTitle = title
		}
		return mapping.ID, mappedTitle
	}
	return Slugify(title), title
}

func extractYear(text, href string) (int, bool) {
	for _, candidate := range []string{text, path.Base(hrefPath(href))} {
		if m := yearRE.FindStringSubmatch(timetable.Fold(candidate)); m != nil {
			if year, err := strconv.Atoi(m[1]); err == nil {
				return year, true
			}
		}
	}
	return 0, false
}

func hrefPath(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	return parsed.Path
}

func isIndexLink(href string) bool {
	name := strings.ToLower(path.Base(hrefPath(href)))
	return name == "index.html" || name == "index.htm"
}

type indexRow struct {
	title string
	year  int
	url   string
}

// collectRows walks the index table, tracking which study-level section
// each row belongs to, and collects timetable links with a year.
func collectRows(indexHTML []byte, indexURL string, includeMaster bool) ([]indexRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(indexHTML))
	if err != nil {
		return nil, fmt.Errorf("parse index html: %w", err)
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid index url: %w", err)
	}

	var rows []indexRow
	level := ""
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td,th")
		if cells.Length() == 0 {
			return
		}

		rowText := timetable.Fold(timetable.FlatText(tr))
		if strings.Contains(rowText, "studii licenta") {
			level = "licenta"
			return
		}
		if strings.Contains(rowText, "studii master") {
			level = "master"
			return
		}
		if level != "licenta" && !(includeMaster && level == "master") {
			return
		}

		title := timetable.FlatText(cells.Eq(0))
		if title == "" || strings.HasPrefix(timetable.Fold(title), "specializarea") {
			return
		}

		tr.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href, _ := anchor.Attr("href")
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			absolute := base.ResolveReference(ref).String()
			if isIndexLink(absolute) || !strings.HasSuffix(strings.ToLower(absolute), ".html") {
				return
			}
			year, ok := extractYear(timetable.FlatText(anchor), absolute)
			if !ok {
				return
			}
			rows = append(rows, indexRow{title: title, year: year, url: absolute})
		})
	})
	return rows, nil
}

// Generate crawls the index and builds the sources config. Group
// detection failures are returned as messages, not errors: a page that
// cannot be parsed just ships with empty groups.
func Generate(ctx context.Context, fetcher scraper.Fetcher, opts Options) (*SourcesFile, []string, error) {
	index, err := fetcher.Fetch(ctx, opts.IndexURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch index page: %w", err)
	}
	rows, err := collectRows(index.Body, opts.IndexURL, opts.IncludeMaster)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no timetable rows were discovered from the index page")
	}

	type sourceKey struct {
		programID string
		year      int
		url       string
	}
	byKey := map[sourceKey]*GeneratedSource{}
	var failures []string

	for _, row := range rows {
		programID, title := resolveProgram(row.title, opts.ProgramMap)
		key := sourceKey{programID, row.year, row.url}
		source, ok := byKey[key]
		if !ok {
			source = &GeneratedSource{ProgramID: programID, Title: title, Year: row.year, URL: row.url, Groups: []int{}}
			byKey[key] = source
		}

		if !opts.DetectGroups {
			continue
		}
		page, err := fetcher.Fetch(ctx, row.url)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", row.url, err))
			continue
		}
		parsed, _, err := timetable.Parse(page.Body, nil)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", row.url, err))
			continue
		}
		source.Groups = mergeInts(source.Groups, parsed.DetectedGroups)
	}

	programs := make([]GeneratedSource, 0, len(byKey))
	for _, source := range byKey {
		programs = append(programs, *source)
	}
	sort.Slice(programs, func(i, j int) bool {
		a, b := programs[i], programs[j]
		if a.ProgramID != b.ProgramID {
			return a.ProgramID < b.ProgramID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.URL < b.URL
	})

	return &SourcesFile{AcademicYear: opts.AcademicYear, Programs: programs}, failures, nil
}

func mergeInts(a, b []int) []int {
	set := map[int]bool{}
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
