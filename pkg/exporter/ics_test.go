package exporter

import (
	"strings"
	"testing"
	"time"

	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
	"github.com/Ronuhz/ubborarservice/pkg/timetable"
)

func testTimetable() *pipeline.Timetable {
	return &pipeline.Timetable{
		Version:      pipeline.Version,
		AcademicYear: "2025-2026",
		ProgramID:    "informatica",
		Year:         3,
		Group:        931,
		Days: []timetable.DaySchedule{
			{Day: timetable.Monday, Entries: []timetable.Entry{
				{Time: "8-10", Frequency: timetable.Weekly, Course: "Analiza", Type: timetable.Lecture,
					Room: "A303", RoomAddress: "Cladirea centrala", Instructor: "Prof. dr. Popescu Ion"},
				{Time: "10:00-11:30", Frequency: timetable.Week1, Course: "Logica", Type: timetable.Seminar, Room: "A2"},
			}},
			{Day: timetable.Tuesday, Entries: []timetable.Entry{
				{Time: "12-14", Frequency: timetable.Week2, Course: "ASC", Type: timetable.Lab, Room: "L338"},
			}},
		},
	}
}

func generate(t *testing.T, tt *pipeline.Timetable, parity int) string {
	t.Helper()
	var b strings.Builder
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	if err := GenerateICS(tt, weekStart, parity, &b); err != nil {
		t.Fatalf("GenerateICS failed: %v", err)
	}
	return b.String()
}

func TestGenerateICSWeek1(t *testing.T) {
	out := generate(t, testTimetable(), 1)

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("got %d events, want 2 (weekly + week1)", got)
	}
	if !strings.Contains(out, "SUMMARY:Analiza") || !strings.Contains(out, "SUMMARY:Logica") {
		t.Error("expected the weekly lecture and the week1 seminar")
	}
	if strings.Contains(out, "SUMMARY:ASC") {
		t.Error("week2 lab must not appear in a week1 export")
	}
}

func TestGenerateICSWeek2(t *testing.T) {
	out := generate(t, testTimetable(), 2)

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("got %d events, want 2 (weekly + week2)", got)
	}
	if !strings.Contains(out, "SUMMARY:ASC") {
		t.Error("expected the week2 lab")
	}
	if strings.Contains(out, "SUMMARY:Logica") {
		t.Error("week1 seminar must not appear in a week2 export")
	}
}

func TestGenerateICSEventDetails(t *testing.T) {
	out := generate(t, testTimetable(), 1)

	// 8:00 in Bucharest on 2026-03-02 is 06:00 UTC.
	if !strings.Contains(out, "UID:20260302T060000Z-g931-1") {
		t.Error("expected a deterministic uid for the first monday event")
	}
	if !strings.Contains(out, "LOCATION:A303 (Cladirea centrala)") {
		t.Error("expected the room address in the location")
	}
	if !strings.Contains(out, "LOCATION:A2") {
		t.Error("expected the bare room when no address is known")
	}
	if !strings.Contains(out, "Type: seminar") {
		t.Error("expected the session type in the description")
	}
}

func TestGenerateICSSkipsUnparsableTimes(t *testing.T) {
	tt := testTimetable()
	tt.Days[0].Entries[0].Time = "???"

	out := generate(t, tt, 1)
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("got %d events, want 1 after skipping the bad time", got)
	}
}

func TestParseRange(t *testing.T) {
	startH, startM, endH, endM, err := parseRange("08:15-09:45")
	if err != nil {
		t.Fatalf("parseRange failed: %v", err)
	}
	if startH != 8 || startM != 15 || endH != 9 || endM != 45 {
		t.Errorf("parsed %d:%d-%d:%d", startH, startM, endH, endM)
	}

	startH, _, endH, _, err = parseRange("8-10")
	if err != nil {
		t.Fatalf("parseRange failed on bare hours: %v", err)
	}
	if startH != 8 || endH != 10 {
		t.Errorf("parsed hours %d-%d", startH, endH)
	}

	for _, bad := range []string{"", "8", "25-26", "8:99-10"} {
		if _, _, _, _, err := parseRange(bad); err == nil {
			t.Errorf("parseRange(%q) should fail", bad)
		}
	}
}
