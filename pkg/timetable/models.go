package timetable

// Day is a canonical weekday value. Timetables only cover monday..friday.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
)

// DayOrder is the canonical ordering used everywhere days are emitted.
var DayOrder = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

// Frequency says how often a session occurs.
type Frequency string

const (
	Weekly Frequency = "weekly"
	Week1  Frequency = "week1" // odd weeks only
	Week2  Frequency = "week2" // even weeks only
)

// EntryType is the kind of session.
type EntryType string

const (
	Lecture EntryType = "lecture"
	Seminar EntryType = "seminar"
	Lab     EntryType = "lab"
)

// Entry is one scheduled session within a group's day.
type Entry struct {
	Time        string    `json:"time"`
	Frequency   Frequency `json:"frequency"`
	Course      string    `json:"course"`
	Type        EntryType `json:"type"`
	Room        string    `json:"room"`
	Instructor  string    `json:"instructor"`
	RoomAddress string    `json:"roomAddress,omitempty"`
}

// DaySchedule holds the entries of one day, in first-seen order.
type DaySchedule struct {
	Day     Day     `json:"day"`
	Entries []Entry `json:"entries"`
}

// ParsedTimetable is the result of parsing one source page.
// ByGroup has a key for every target group, even when it parsed empty.
type ParsedTimetable struct {
	ByGroup        map[int][]DaySchedule
	DetectedGroups []int
}

// RawEntry is a located-but-not-yet-normalized session, as sliced out of
// the table by a Layout. Day, Time, Frequency and Type carry the source
// text; normalization happens in Parse.
type RawEntry struct {
	Group      int
	DayRaw     string
	TimeRaw    string
	FreqRaw    string
	TypeRaw    string
	Course     string
	Room       string
	Instructor string
}
