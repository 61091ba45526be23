// Package pipeline orchestrates one scrape run: fetch every configured
// source, parse it, enrich rooms, and publish per-group timetable
// artifacts plus an aggregate run status.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ronuhz/ubborarservice/pkg/config"
	"github.com/Ronuhz/ubborarservice/pkg/legend"
	"github.com/Ronuhz/ubborarservice/pkg/scraper"
	"github.com/Ronuhz/ubborarservice/pkg/timetable"
)

// SourceStatus is the terminal state of one source.
type SourceStatus string

const (
	StatusOK     SourceStatus = "ok"
	StatusFailed SourceStatus = "failed"
)

// SourceResult is the outcome of processing one source. Failures are
// contained here; they never propagate across sources.
type SourceResult struct {
	Source         config.Source
	Status         SourceStatus
	DetectedGroups []int
	GroupsWritten  []int
	FilesWritten   int
	FilesEmpty     int
	Err            error
	Warnings       []string
}

// Options tune one run.
type Options struct {
	SoftFailEmpty bool // write empty timetables for failed sources with no prior output
	Concurrency   int
	RoomLegendURL string
	SkipLegend    bool
}

// Runner executes runs. The fetcher and store are injected so tests can
// run the whole pipeline against fakes and a temp dir.
type Runner struct {
	Fetcher scraper.Fetcher
	Store   *Store
	Log     zerolog.Logger
	Options Options

	// Now is the run clock; tests pin it. Nil means time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run processes every source and assembles the RunStatus. Only a failure
// to write the status artifact itself is fatal.
func (r *Runner) Run(ctx context.Context, sources []config.Source) (*RunStatus, error) {
	generatedAt := r.now().UTC().Format("2006-01-02T15:04:05Z")

	var legendWarnings []Warning
	var rooms *legend.Legend
	if !r.Options.SkipLegend && r.Options.RoomLegendURL != "" {
		var err error
		rooms, err = legend.Fetch(ctx, r.Fetcher, r.Options.RoomLegendURL)
		if err != nil {
			// Non-fatal: entries simply go out without addresses.
			r.Log.Warn().Err(err).Str("url", r.Options.RoomLegendURL).Msg("room legend unavailable")
			legendWarnings = append(legendWarnings, Warning{
				Warning: fmt.Sprintf("Room legend fetch failed (%s): %v", r.Options.RoomLegendURL, err),
			})
		} else if rooms.Len() > 0 {
			if err := r.Store.WriteJSON(RoomsFile, struct {
				Rooms []legend.Room `json:"rooms"`
			}{Rooms: rooms.Rooms()}); err != nil {
				legendWarnings = append(legendWarnings, Warning{Warning: err.Error()})
			}
		}
	}

	concurrency := r.Options.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	results := make([]*SourceResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src config.Source) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = r.failSource(src, fmt.Errorf("run cancelled: %w", ctx.Err()), generatedAt)
				return
			}
			if ctx.Err() != nil {
				results[i] = r.failSource(src, fmt.Errorf("run cancelled: %w", ctx.Err()), generatedAt)
				return
			}
			results[i] = r.processSource(ctx, src, rooms, generatedAt)
		}(i, src)
	}
	wg.Wait()

	status := r.aggregate(sources, results, legendWarnings, rooms.Len(), generatedAt)
	if err := r.Store.WriteJSON(StatusFile, status); err != nil {
		return nil, fmt.Errorf("failed to write run status: %w", err)
	}
	return status, nil
}

// processSource runs fetch -> parse -> enrich -> write for one source.
// Any error is contained into the returned result.
func (r *Runner) processSource(ctx context.Context, src config.Source, rooms *legend.Legend, generatedAt string) *SourceResult {
	log := r.Log.With().Str("program", src.ProgramID).Int("year", src.Year).Logger()

	page, err := r.Fetcher.Fetch(ctx, src.URL)
	if err != nil {
		log.Warn().Err(err).Msg("source fetch failed")
		return r.failSource(src, err, generatedAt)
	}

	parsed, warnings, err := timetable.Parse(page.Body, src.Groups)
	if err != nil {
		log.Warn().Err(err).Msg("source parse failed")
		result := r.failSource(src, err, generatedAt)
		result.Warnings = append(warnings, result.Warnings...)
		return result
	}

	var lastUpdated *string
	if page.LastModified != nil {
		date := page.LastModified.Format("2006-01-02")
		lastUpdated = &date
	}

	result := &SourceResult{Source: src, Status: StatusOK, DetectedGroups: parsed.DetectedGroups, Warnings: warnings}

	groupsToWrite := src.Groups
	if len(groupsToWrite) == 0 {
		groupsToWrite = parsed.DetectedGroups
	}
	for _, group := range groupsToWrite {
		days := enrichDays(parsed.ByGroup[group], rooms)
		payload := r.timetablePayload(src, group, days, lastUpdated, generatedAt)
		if err := r.Store.WriteJSON(r.Store.TimetablePath(src, group), payload); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		result.FilesWritten++
		result.GroupsWritten = append(result.GroupsWritten, group)
		if len(days) == 0 {
			result.FilesEmpty++
		}
	}
	sort.Ints(result.GroupsWritten)

	if missing := missingGroups(src.Groups, parsed.DetectedGroups); len(missing) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Configured groups missing in parsed source: %v", missing))
	}

	log.Info().Ints("groups", result.GroupsWritten).Int("written", result.FilesWritten).Msg("source processed")
	return result
}

// failSource marks a source failed and applies the per-group fallback
// policy: existing artifacts are left untouched; missing ones receive an
// explicit empty timetable only in soft-fail-empty mode.
func (r *Runner) failSource(src config.Source, cause error, generatedAt string) *SourceResult {
	result := &SourceResult{Source: src, Status: StatusFailed, Err: cause}
	for _, group := range src.Groups {
		path := r.Store.TimetablePath(src, group)
		if r.Store.Exists(path) {
			continue // keep the previous run's data
		}
		if !r.Options.SoftFailEmpty {
			continue
		}
		payload := r.timetablePayload(src, group, nil, nil, generatedAt)
		if err := r.Store.WriteJSON(path, payload); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		result.FilesWritten++
		result.FilesEmpty++
		result.GroupsWritten = append(result.GroupsWritten, group)
	}
	return result
}

func (r *Runner) timetablePayload(src config.Source, group int, days []timetable.DaySchedule, lastUpdated *string, generatedAt string) *Timetable {
	if days == nil {
		days = []timetable.DaySchedule{}
	}
	return &Timetable{
		Version:             Version,
		GeneratedAt:         generatedAt,
		AcademicYear:        src.AcademicYear,
		ProgramID:           src.ProgramID,
		Year:                src.Year,
		Group:               group,
		LastUpdatedAtSource: lastUpdated,
		Days:                days,
	}
}

// aggregate assembles the single RunStatus, in configured source order
// regardless of which worker finished first.
func (r *Runner) aggregate(sources []config.Source, results []*SourceResult, legendWarnings []Warning, roomsInLegend int, generatedAt string) *RunStatus {
	status := &RunStatus{
		Version:       Version,
		GeneratedAt:   generatedAt,
		SourcesTotal:  len(sources),
		RoomsInLegend: roomsInLegend,
		Failures:      []Failure{},
		Warnings:      append([]Warning{}, legendWarnings...),
		Sources:       []SourceSummary{},
	}

	for _, result := range results {
		if result == nil {
			continue
		}
		src := result.Source
		status.TimetableFilesWritten += result.FilesWritten
		status.TimetableFilesEmpty += result.FilesEmpty

		for _, warning := range result.Warnings {
			status.Warnings = append(status.Warnings, Warning{
				AcademicYear: src.AcademicYear,
				ProgramID:    src.ProgramID,
				Year:         src.Year,
				URL:          src.URL,
				Warning:      warning,
			})
		}

		if result.Status == StatusFailed {
			status.SourcesFailed++
			status.Failures = append(status.Failures, Failure{
				AcademicYear: src.AcademicYear,
				ProgramID:    src.ProgramID,
				Year:         fmt.Sprintf("%d", src.Year),
				URL:          src.URL,
				Error:        result.Err.Error(),
			})
			continue
		}

		status.SourcesSucceeded++
		status.Sources = append(status.Sources, SourceSummary{
			AcademicYear:     src.AcademicYear,
			ProgramID:        src.ProgramID,
			Year:             src.Year,
			URL:              src.URL,
			ConfiguredGroups: intsOrEmpty(src.Groups),
			DetectedGroups:   intsOrEmpty(result.DetectedGroups),
			GroupsWritten:    intsOrEmpty(result.GroupsWritten),
		})
	}
	return status
}

// enrichDays returns a copy of the schedule with room addresses resolved
// from the legend. The parsed input is never mutated.
func enrichDays(days []timetable.DaySchedule, rooms *legend.Legend) []timetable.DaySchedule {
	if rooms.Len() == 0 || len(days) == 0 {
		return days
	}
	enriched := make([]timetable.DaySchedule, 0, len(days))
	for _, day := range days {
		entries := make([]timetable.Entry, 0, len(day.Entries))
		for _, entry := range day.Entries {
			if address, ok := rooms.Lookup(entry.Room); ok {
				entry.RoomAddress = address
			}
			entries = append(entries, entry)
		}
		enriched = append(enriched, timetable.DaySchedule{Day: day.Day, Entries: entries})
	}
	return enriched
}

func missingGroups(configured, detected []int) []int {
	detectedSet := map[int]bool{}
	for _, g := range detected {
		detectedSet[g] = true
	}
	var missing []int
	for _, g := range configured {
		if !detectedSet[g] {
			missing = append(missing, g)
		}
	}
	sort.Ints(missing)
	return missing
}

func intsOrEmpty(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}
