package pipeline

import (
	"errors"
	"os"

	"github.com/Ronuhz/ubborarservice/pkg/timetable"
)

// Version tags every emitted artifact so consumers can detect schema
// changes.
const Version = 1

// Timetable is the per-group artifact payload.
type Timetable struct {
	Version             int                     `json:"version"`
	GeneratedAt         string                  `json:"generatedAt"`
	AcademicYear        string                  `json:"academicYear"`
	ProgramID           string                  `json:"programId"`
	Year                int                     `json:"year"`
	Group               int                     `json:"group"`
	LastUpdatedAtSource *string                 `json:"lastUpdatedAtSource"`
	Days                []timetable.DaySchedule `json:"days"`
}

// Failure describes one failed source. Year is a string here for
// compatibility with the published status schema.
type Failure struct {
	AcademicYear string `json:"academicYear"`
	ProgramID    string `json:"programId"`
	Year         string `json:"year"`
	URL          string `json:"url"`
	Error        string `json:"error"`
}

// Warning is a non-fatal observation. Run-scoped warnings (like a failed
// legend fetch) leave the source fields empty.
type Warning struct {
	AcademicYear string `json:"academicYear,omitempty"`
	ProgramID    string `json:"programId,omitempty"`
	Year         int    `json:"year,omitempty"`
	URL          string `json:"url,omitempty"`
	Warning      string `json:"warning"`
}

// SourceSummary is the per-source section of the status artifact,
// emitted for successfully processed sources.
type SourceSummary struct {
	AcademicYear     string `json:"academicYear"`
	ProgramID        string `json:"programId"`
	Year             int    `json:"year"`
	URL              string `json:"url"`
	ConfiguredGroups []int  `json:"configuredGroups"`
	DetectedGroups   []int  `json:"detectedGroups"`
	GroupsWritten    []int  `json:"groupsWritten"`
}

// RunStatus aggregates one full run. It is assembled exactly once, after
// every source processor has finished, and is read-only afterwards.
type RunStatus struct {
	Version               int             `json:"version"`
	GeneratedAt           string          `json:"generatedAt"`
	SourcesTotal          int             `json:"sourcesTotal"`
	SourcesSucceeded      int             `json:"sourcesSucceeded"`
	SourcesFailed         int             `json:"sourcesFailed"`
	TimetableFilesWritten int             `json:"timetableFilesWritten"`
	TimetableFilesEmpty   int             `json:"timetableFilesEmpty"`
	RoomsInLegend         int             `json:"roomsInLegend"`
	Failures              []Failure       `json:"failures"`
	Warnings              []Warning       `json:"warnings"`
	Sources               []SourceSummary `json:"sources"`
}

// ReadStatus loads a previously written status artifact. A missing file
// yields (nil, nil): downstream builders treat absence as "no run data".
func ReadStatus(path string) (*RunStatus, error) {
	store := &Store{Root: "."}
	var status RunStatus
	if err := store.ReadJSON(path, &status); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}
