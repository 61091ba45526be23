// Package exporter renders a generated group timetable to an ICS
// calendar, projecting the day/slot schedule onto one concrete week.
package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
	"github.com/Ronuhz/ubborarservice/pkg/timetable"
)

var dayOffsets = map[timetable.Day]int{
	timetable.Monday:    0,
	timetable.Tuesday:   1,
	timetable.Wednesday: 2,
	timetable.Thursday:  3,
	timetable.Friday:    4,
}

// parseClock reads "8", "08" or "08:15" into hour and minute.
func parseClock(raw string) (int, int, error) {
	parts := strings.SplitN(raw, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute := 0
	if len(parts) == 2 {
		minute, err = strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return 0, 0, fmt.Errorf("invalid minute in %q", raw)
		}
	}
	return hour, minute, nil
}

func parseRange(slot string) (int, int, int, int, error) {
	parts := strings.SplitN(slot, "-", 2)
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("invalid time range %q", slot)
	}
	startH, startM, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	endH, endM, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return startH, startM, endH, endM, nil
}

// GenerateICS writes one calendar event per session occurring in the
// week starting at weekStart (a Monday). weekParity selects which
// alternating-week sessions appear: 1 keeps week1 entries, 2 keeps
// week2; weekly sessions always appear.
func GenerateICS(tt *pipeline.Timetable, weekStart time.Time, weekParity int, w io.Writer) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	loc, err := time.LoadLocation("Europe/Bucharest")
	if err != nil {
		return fmt.Errorf("could not load timezone: %w", err)
	}
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, loc)

	sequence := 0
	for _, day := range tt.Days {
		offset, ok := dayOffsets[day.Day]
		if !ok {
			continue
		}
		date := weekStart.AddDate(0, 0, offset)
		for _, entry := range day.Entries {
			switch entry.Frequency {
			case timetable.Week1:
				if weekParity != 1 {
					continue
				}
			case timetable.Week2:
				if weekParity != 2 {
					continue
				}
			}

			startH, startM, endH, endM, err := parseRange(entry.Time)
			if err != nil {
				continue // hour-only and HH:MM both parse; anything else is skipped
			}
			start := time.Date(date.Year(), date.Month(), date.Day(), startH, startM, 0, 0, loc)
			end := time.Date(date.Year(), date.Month(), date.Day(), endH, endM, 0, 0, loc)

			sequence++
			event := cal.AddEvent(fmt.Sprintf("%s-g%d-%d", start.UTC().Format("20060102T150405Z"), tt.Group, sequence))
			event.SetCreatedTime(time.Now())
			event.SetDtStampTime(time.Now())
			event.SetModifiedAt(time.Now())
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(entry.Course)

			location := entry.Room
			if entry.RoomAddress != "" {
				location = fmt.Sprintf("%s (%s)", entry.Room, entry.RoomAddress)
			}
			event.SetLocation(location)
			event.SetDescription(fmt.Sprintf("Type: %s\nInstructor: %s", entry.Type, entry.Instructor))
		}
	}

	return cal.SerializeTo(w)
}
