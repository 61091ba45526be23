// Package catalog derives the program/year/group picker payload from
// the source configuration, optionally corrected by what the last run
// actually detected on the site.
package catalog

import (
	"sort"

	"github.com/Ronuhz/ubborarservice/pkg/config"
	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
)

// YearGroups lists the groups of one study year.
type YearGroups struct {
	Year   int   `json:"year"`
	Groups []int `json:"groups"`
}

// Program is one degree track in the catalog.
type Program struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Years []YearGroups `json:"years"`
}

// Catalog is the published picker payload.
type Catalog struct {
	Version       int       `json:"version"`
	GeneratedAt   string    `json:"generatedAt"`
	AcademicYears []string  `json:"academicYears"`
	Programs      []Program `json:"programs"`
}

type overrideKey struct {
	academicYear string
	programID    string
	year         int
	url          string
}

// groupOverrides indexes non-empty detected-group lists from a run
// status. An empty detected list never overrides configured groups, so a
// source that legitimately detects nothing keeps its configured set.
func groupOverrides(status *pipeline.RunStatus) map[overrideKey][]int {
	if status == nil {
		return nil
	}
	overrides := map[overrideKey][]int{}
	for _, src := range status.Sources {
		if len(src.DetectedGroups) == 0 {
			continue
		}
		key := overrideKey{src.AcademicYear, src.ProgramID, src.Year, src.URL}
		overrides[key] = uniqueSorted(src.DetectedGroups)
	}
	return overrides
}

// Build assembles the catalog. Detected groups replace configured ones
// per source so the picker tracks the site when groups are added or
// removed mid-year.
func Build(sources []config.Source, status *pipeline.RunStatus, generatedAt string) *Catalog {
	overrides := groupOverrides(status)

	yearSet := map[string]bool{}
	type programBucket struct {
		id    string
		title string
		years map[int]map[int]bool
	}
	programs := map[string]*programBucket{}

	for _, src := range sources {
		yearSet[src.AcademicYear] = true

		groups := src.Groups
		if override, ok := overrides[overrideKey{src.AcademicYear, src.ProgramID, src.Year, src.URL}]; ok {
			groups = override
		}

		bucket, ok := programs[src.ProgramID]
		if !ok {
			bucket = &programBucket{id: src.ProgramID, title: src.Title, years: map[int]map[int]bool{}}
			programs[src.ProgramID] = bucket
		}
		if bucket.title == "" {
			bucket.title = src.Title
		}
		if bucket.years[src.Year] == nil {
			bucket.years[src.Year] = map[int]bool{}
		}
		for _, group := range groups {
			bucket.years[src.Year][group] = true
		}
	}

	catalog := &Catalog{
		Version:       pipeline.Version,
		GeneratedAt:   generatedAt,
		AcademicYears: sortedStrings(yearSet),
		Programs:      []Program{},
	}

	programIDs := make([]string, 0, len(programs))
	for id := range programs {
		programIDs = append(programIDs, id)
	}
	sort.Strings(programIDs)

	for _, id := range programIDs {
		bucket := programs[id]
		years := make([]int, 0, len(bucket.years))
		for year := range bucket.years {
			years = append(years, year)
		}
		sort.Ints(years)

		program := Program{ID: bucket.id, Title: bucket.title, Years: []YearGroups{}}
		for _, year := range years {
			groups := make([]int, 0, len(bucket.years[year]))
			for group := range bucket.years[year] {
				groups = append(groups, group)
			}
			sort.Ints(groups)
			program.Years = append(program.Years, YearGroups{Year: year, Groups: groups})
		}
		catalog.Programs = append(catalog.Programs, program)
	}
	return catalog
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

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
