package timetable

import (
	"errors"
	"testing"
)

func TestNormalizeDayAliases(t *testing.T) {
	cases := map[string]Day{
		"Luni":       Monday,
		"luni.":      Monday,
		"LUNI":       Monday,
		"Monday":     Monday,
		"Hétfő":      Monday,
		"Marți":      Tuesday,
		"marţi":      Tuesday,
		"Kedd":       Tuesday,
		"Miercuri":   Wednesday,
		"Wed":        Wednesday,
		"Szerda":     Wednesday,
		"Joi":        Thursday,
		"Csütörtök":  Thursday,
		"Vineri":     Friday,
		"Friday":     Friday,
		"Péntek":     Friday,
		"Ziua: Luni": Monday,
	}
	for input, want := range cases {
		day, err := NormalizeDay(input)
		if err != nil {
			t.Errorf("NormalizeDay(%q) failed: %v", input, err)
			continue
		}
		if day != want {
			t.Errorf("NormalizeDay(%q) = %s, want %s", input, day, want)
		}
	}
}

func TestNormalizeDayUnknown(t *testing.T) {
	for _, input := range []string{"", "Sambata", "8-10", "???"} {
		_, err := NormalizeDay(input)
		if err == nil {
			t.Errorf("NormalizeDay(%q) succeeded, want error", input)
			continue
		}
		var normErr *NormalizationError
		if !errors.As(err, &normErr) {
			t.Errorf("NormalizeDay(%q) returned %T, want *NormalizationError", input, err)
			continue
		}
		if normErr.Kind != "day" {
			t.Errorf("NormalizeDay(%q) error kind = %q, want \"day\"", input, normErr.Kind)
		}
	}
}

func TestDetectFrequency(t *testing.T) {
	cases := map[string]Frequency{
		"":                   Weekly,
		"Analiza matematica": Weekly,
		"sapt. 1":            Week1,
		"Sapt 1":             Week1,
		"saptamana 1":        Week1,
		"week 1":             Week1,
		"impara":             Week1,
		"(1)":                Week1,
		"sapt. 2":            Week2,
		"week2":              Week2,
		"para":               Week2,
		"weekly":             Weekly,
		"saptamanal":         Weekly,
		"sapt. 1 si sapt. 2": Weekly,
	}
	for input, want := range cases {
		if got := DetectFrequency(input); got != want {
			t.Errorf("DetectFrequency(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]EntryType{
		"(C)":                  Lecture,
		"(curs)":               Lecture,
		"Curs":                 Lecture,
		"lecture":              Lecture,
		"(S)":                  Seminar,
		"(sem)":                Seminar,
		"Seminar":              Seminar,
		"(L)":                  Lab,
		"(lab)":                Lab,
		"Laborator":            Lab,
		"Analiza reala (c)":    Lecture,
		"Logica (s) sapt. 1":   Seminar,
		"Arhitectura calc (l)": Lab,
	}
	for input, want := range cases {
		got, err := NormalizeType(input)
		if err != nil {
			t.Errorf("NormalizeType(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeType(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNormalizeTypeUnknown(t *testing.T) {
	for _, input := range []string{"", "Programare WEB", "(X)", "cursuri"} {
		_, err := NormalizeType(input)
		if err == nil {
			t.Errorf("NormalizeType(%q) succeeded, want error", input)
			continue
		}
		var normErr *NormalizationError
		if !errors.As(err, &normErr) || normErr.Kind != "type" {
			t.Errorf("NormalizeType(%q) returned unexpected error %v", input, err)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"8-10":         "8-10",
		"10 - 12":      "10-12",
		"8–10":         "8-10",
		"08:00—09:50":  "08:00-09:50",
		" 14 − 16 ":    "14-16",
		"08:15- 09:45": "08:15-09:45",
	}
	for input, want := range cases {
		if got := NormalizeTime(input); got != want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFindTime(t *testing.T) {
	if got := FindTime("Orele 14 - 16"); got != "14-16" {
		t.Errorf("FindTime = %q, want \"14-16\"", got)
	}
	if got := FindTime("Luni"); got != "" {
		t.Errorf("FindTime on a day label = %q, want empty", got)
	}
}

func TestIsTime(t *testing.T) {
	if !IsTime("14 - 16") {
		t.Error("expected \"14 - 16\" to be a time range")
	}
	if !IsTime("08:00-09:50") {
		t.Error("expected \"08:00-09:50\" to be a time range")
	}
	if IsTime("ora 14-16") {
		t.Error("expected \"ora 14-16\" to not be a bare time range")
	}
	if IsTime("Luni") {
		t.Error("expected \"Luni\" to not be a time range")
	}
}

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Marți":     "marti",
		"marţi":     "marti",
		"Csütörtök": "csutortok",
		"SZERDA":    "szerda",
		"plain":     "plain",
	}
	for input, want := range cases {
		if got := Fold(input); got != want {
			t.Errorf("Fold(%q) = %q, want %q", input, got, want)
		}
	}
}
