// Package announce builds the announcements payload from manually
// configured items, appending a synthesized warning when the last scrape
// run had failing sources.
package announce

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
)

// failureNamespace makes synthesized announcement ids deterministic per
// run date. Do not change it: clients dedupe dismissals by id.
var failureNamespace = uuid.MustParse("8f6b32a7-5c1e-4f6a-9d2b-1e6a4c0d9b55")

// Item is one announcement shown in the app.
type Item struct {
	ID       string    `json:"id"`
	Severity string    `json:"severity"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

// Announcements is the published payload.
type Announcements struct {
	Version     int    `json:"version"`
	GeneratedAt string `json:"generatedAt"`
	Items       []Item `json:"items"`
}

// LoadItems reads manually configured announcement items. A missing file
// means no manual announcements.
func LoadItems(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read announcements config: %w", err)
	}
	var payload struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse announcements config: %w", err)
	}
	return payload.Items, nil
}

// Build passes manual items through and, when the run status reports
// failed sources, appends exactly one warning item valid for 48 hours
// from the run date's midnight. Manual and synthesized items are never
// deduplicated against each other.
func Build(manual []Item, status *pipeline.RunStatus, now time.Time) *Announcements {
	out := &Announcements{
		Version:     pipeline.Version,
		GeneratedAt: now.UTC().Format("2006-01-02T15:04:05Z"),
		Items:       append([]Item{}, manual...),
	}

	if status != nil && status.SourcesFailed > 0 {
		runDate := now.UTC().Truncate(24 * time.Hour)
		id := uuid.NewSHA1(failureNamespace, []byte("scrape-failures/"+runDate.Format("2006-01-02")))
		out.Items = append(out.Items, Item{
			ID:       id.String(),
			Severity: "warning",
			Title:    "announcement.scrape_failures.title",
			Body:     "announcement.scrape_failures.body",
			StartsAt: runDate,
			EndsAt:   runDate.Add(48 * time.Hour),
		})
	}
	return out
}
