package timetable

import (
	"errors"
	"strings"
	"testing"
)

// columnarHTML is the classic arrangement: one big table, day cells
// spanning rows on the left, one column per group.
const columnarHTML = `<html><body>
<table border="1">
<tr><td>Ziua</td><td>Orele</td><td>511</td><td>512</td></tr>
<tr><td rowspan="2">Luni</td><td>8-10</td>
<td>Analiza matematica (C)<br/>sapt. 1<br/>Sala A303<br/>Prof. dr. Popescu Ion</td>
<td>-</td></tr>
<tr><td>10 - 12</td>
<td>sapt. 2: Programare WEB (S) (RUFF Laura), L302</td>
<td>Programare WEB (S) (RUFF Laura), L302<br/>Programare WEB (S) (RUFF Laura), L302</td></tr>
<tr><td>Marti</td><td>12-14</td><td>-</td>
<td>Logica (S)<br/>Sala A2<br/>Asist. Vancea A.</td></tr>
<tr><td>Marti</td><td>14-16</td><td>???</td><td>511/2</td></tr>
</table>
</body></html>`

// groupSectionedHTML is the per-group arrangement: a "Grupa N" heading
// before each table, with labeled header columns.
const groupSectionedHTML = `<html><body>
<h2>Grupa 211</h2>
<table>
<tr><th>Ziua</th><th>Orele</th><th>Frecventa</th><th>Sala</th><th>Tipul</th><th>Disciplina</th><th>Cadrul didactic</th></tr>
<tr><td>Luni</td><td>8-10</td><td></td><td>A303</td><td>Curs</td><td>Analiza matematica</td><td>Prof. dr. Popescu Ion</td></tr>
<tr><td>Luni</td><td>10-12</td><td>sapt. 2</td><td>L338</td><td>Laborator</td><td>Programare</td><td>Asist. Vancea A.</td></tr>
</table>
<h2>Grupa 212</h2>
<table>
<tr><th>Ziua</th><th>Orele</th><th>Sala</th><th>Tipul</th><th>Disciplina</th></tr>
<tr><td>Marti</td><td>12-14</td><td>A2</td><td>Seminar</td><td>Logica</td></tr>
</table>
</body></html>`

func findDay(t *testing.T, days []DaySchedule, day Day) DaySchedule {
	t.Helper()
	for _, d := range days {
		if d.Day == day {
			return d
		}
	}
	t.Fatalf("no schedule for %s in %v", day, days)
	return DaySchedule{}
}

func TestParseColumnarLayout(t *testing.T) {
	parsed, warnings, err := Parse([]byte(columnarHTML), []int{511, 512})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(parsed.DetectedGroups) != 2 || parsed.DetectedGroups[0] != 511 || parsed.DetectedGroups[1] != 512 {
		t.Errorf("detected groups = %v, want [511 512]", parsed.DetectedGroups)
	}

	monday511 := findDay(t, parsed.ByGroup[511], Monday)
	if len(monday511.Entries) != 2 {
		t.Fatalf("group 511 monday has %d entries, want 2", len(monday511.Entries))
	}

	lecture := monday511.Entries[0]
	if lecture.Course != "Analiza matematica" {
		t.Errorf("course = %q, want \"Analiza matematica\"", lecture.Course)
	}
	if lecture.Time != "8-10" {
		t.Errorf("time = %q, want \"8-10\"", lecture.Time)
	}
	if lecture.Type != Lecture {
		t.Errorf("type = %s, want lecture", lecture.Type)
	}
	if lecture.Frequency != Week1 {
		t.Errorf("frequency = %s, want week1", lecture.Frequency)
	}
	if lecture.Room != "A303" {
		t.Errorf("room = %q, want \"A303\"", lecture.Room)
	}
	if lecture.Instructor != "Prof. dr. Popescu Ion" {
		t.Errorf("instructor = %q, want \"Prof. dr. Popescu Ion\"", lecture.Instructor)
	}

	web := monday511.Entries[1]
	if web.Course != "Programare WEB" || web.Time != "10-12" {
		t.Errorf("second entry = %q at %q, want Programare WEB at 10-12", web.Course, web.Time)
	}
	if web.Frequency != Week2 {
		t.Errorf("inline sapt. 2 prefix gave frequency %s, want week2", web.Frequency)
	}
	if web.Type != Seminar || web.Room != "L302" || web.Instructor != "RUFF Laura" {
		t.Errorf("inline entry fields wrong: %+v", web)
	}

	// The duplicated inline line in group 512's cell collapses to one entry.
	monday512 := findDay(t, parsed.ByGroup[512], Monday)
	if len(monday512.Entries) != 1 {
		t.Errorf("group 512 monday has %d entries, want 1 after dedup", len(monday512.Entries))
	}

	tuesday512 := findDay(t, parsed.ByGroup[512], Tuesday)
	if len(tuesday512.Entries) != 1 || tuesday512.Entries[0].Course != "Logica" {
		t.Errorf("group 512 tuesday = %+v, want one Logica seminar", tuesday512.Entries)
	}

	// The "???" cell has no recognizable session type and is dropped
	// with a warning rather than defaulting.
	foundDrop := false
	for _, warning := range warnings {
		if strings.Contains(warning, "unrecognized type") {
			foundDrop = true
		}
	}
	if !foundDrop {
		t.Errorf("expected a dropped-row warning for the ??? cell, got %v", warnings)
	}
}

func TestParseGroupSectionedLayout(t *testing.T) {
	parsed, _, err := Parse([]byte(groupSectionedHTML), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(parsed.DetectedGroups) != 2 || parsed.DetectedGroups[0] != 211 || parsed.DetectedGroups[1] != 212 {
		t.Errorf("detected groups = %v, want [211 212]", parsed.DetectedGroups)
	}

	monday := findDay(t, parsed.ByGroup[211], Monday)
	if len(monday.Entries) != 2 {
		t.Fatalf("group 211 monday has %d entries, want 2", len(monday.Entries))
	}
	if monday.Entries[0].Type != Lecture || monday.Entries[0].Frequency != Weekly {
		t.Errorf("first entry = %+v, want a weekly lecture", monday.Entries[0])
	}
	lab := monday.Entries[1]
	if lab.Type != Lab || lab.Frequency != Week2 || lab.Room != "L338" {
		t.Errorf("second entry = %+v, want a week2 lab in L338", lab)
	}

	tuesday := findDay(t, parsed.ByGroup[212], Tuesday)
	if len(tuesday.Entries) != 1 {
		t.Fatalf("group 212 tuesday has %d entries, want 1", len(tuesday.Entries))
	}
	seminar := tuesday.Entries[0]
	if seminar.Course != "Logica" || seminar.Type != Seminar || seminar.Instructor != "" {
		t.Errorf("entry = %+v, want a Logica seminar with no instructor", seminar)
	}
}

func TestParseFiltersToExpectedGroups(t *testing.T) {
	parsed, _, err := Parse([]byte(groupSectionedHTML), []int{211})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.DetectedGroups) != 1 || parsed.DetectedGroups[0] != 211 {
		t.Errorf("detected groups = %v, want [211]", parsed.DetectedGroups)
	}
	if _, ok := parsed.ByGroup[212]; ok {
		t.Error("group 212 should not be present when only 211 is expected")
	}
}

func TestParseExpectedGroupGetsEntryEvenWhenEmpty(t *testing.T) {
	parsed, _, err := Parse([]byte(columnarHTML), []int{511, 513})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	days, ok := parsed.ByGroup[513]
	if !ok {
		t.Fatal("expected group 513 to have a (possibly empty) entry in ByGroup")
	}
	if len(days) != 0 {
		t.Errorf("group 513 should have no days, got %v", days)
	}
}

func TestParseUnsupportedLayout(t *testing.T) {
	_, _, err := Parse([]byte("<html><body><p>Pagina in constructie</p></body></html>"), nil)
	if !errors.Is(err, ErrUnsupportedLayout) {
		t.Errorf("expected ErrUnsupportedLayout, got %v", err)
	}
}

func TestParseFailsWhenNoRowSurvives(t *testing.T) {
	html := `<html><body><table>
<tr><td>Ziua</td><td>Orele</td><td>611</td></tr>
<tr><td>Luni</td><td>8-10</td><td>???</td></tr>
</table></body></html>`
	_, warnings, err := Parse([]byte(html), []int{611})
	if err == nil {
		t.Fatal("expected an error when every row is dropped")
	}
	if len(warnings) == 0 {
		t.Error("expected the dropped rows to be reported as warnings")
	}
}

func TestParseColumnFallbackForHeaderlessTable(t *testing.T) {
	html := `<html><body><table>
<tr><td>Ziua</td><td>Orele</td><td></td><td></td></tr>
<tr><td>Luni</td><td>8-10</td>
<td>Curs analiza<br/>Sala 2<br/>Prof. dr. Popescu Ion</td><td>-</td></tr>
</table></body></html>`
	parsed, _, err := Parse([]byte(html), []int{521, 522})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	monday := findDay(t, parsed.ByGroup[521], Monday)
	if len(monday.Entries) != 1 || monday.Entries[0].Course != "Curs analiza" {
		t.Errorf("group 521 monday = %+v, want the Curs analiza entry", monday.Entries)
	}
	if len(parsed.ByGroup[522]) != 0 {
		t.Errorf("group 522 should be empty, got %v", parsed.ByGroup[522])
	}
}
