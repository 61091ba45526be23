// Package legend maps room codes to physical addresses using the
// faculty's legend page. Enrichment is best-effort: a missing or broken
// legend never fails a run.
package legend

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ronuhz/ubborarservice/pkg/scraper"
	"github.com/Ronuhz/ubborarservice/pkg/timetable"
)

var roomTokenRE = regexp.MustCompile(`[A-Za-z0-9_./-]+`)

// Room is one code -> address mapping.
type Room struct {
	Code    string `json:"code"`
	Address string `json:"address"`
}

// Legend is the full mapping, shared read-only across a run.
type Legend struct {
	rooms  map[string]string // original code -> address
	lookup map[string]string // normalized key -> address
}

func normalizeKey(value string) string {
	cleaned := timetable.CollapseSpace(value)
	return strings.ToUpper(strings.ReplaceAll(cleaned, " ", ""))
}

// Parse reads the legend page. Every table row with at least two cells
// registers the first cell (and its ";"/"," separated parts) as codes
// for the address in the second; first occurrence of a code wins.
func Parse(html []byte) (*Legend, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse legend html: %w", err)
	}

	legend := &Legend{rooms: map[string]string{}, lookup: map[string]string{}}
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td,th")
		if cells.Length() < 2 {
			return
		}
		room := timetable.FlatText(cells.Eq(0))
		address := timetable.FlatText(cells.Eq(1))
		if room == "" || normalizeKey(room) == "SALA" {
			return
		}

		candidates := []string{room}
		for _, part := range strings.FieldsFunc(room, func(r rune) bool { return r == ';' || r == ',' }) {
			if part = strings.TrimSpace(part); part != "" {
				candidates = append(candidates, part)
			}
		}
		for _, candidate := range candidates {
			if _, ok := legend.rooms[candidate]; !ok {
				legend.rooms[candidate] = address
			}
			key := normalizeKey(candidate)
			if key != "" {
				if _, ok := legend.lookup[key]; !ok {
					legend.lookup[key] = address
				}
			}
		}
	})
	return legend, nil
}

// Fetch downloads and parses the legend page.
func Fetch(ctx context.Context, fetcher scraper.Fetcher, url string) (*Legend, error) {
	page, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch room legend: %w", err)
	}
	return Parse(page.Body)
}

// Len is the number of distinct room codes.
func (l *Legend) Len() int {
	if l == nil {
		return 0
	}
	return len(l.rooms)
}

// Lookup resolves a timetable room value to an address, trying the whole
// value first and then each code-like token. No fuzzy matching.
func (l *Legend) Lookup(room string) (string, bool) {
	if l == nil {
		return "", false
	}
	room = timetable.CollapseSpace(room)
	if room == "" {
		return "", false
	}
	if address, ok := l.lookup[normalizeKey(room)]; ok {
		return address, true
	}
	for _, token := range roomTokenRE.FindAllString(room, -1) {
		if address, ok := l.lookup[normalizeKey(token)]; ok {
			return address, true
		}
	}
	return "", false
}

// Rooms returns the mappings sorted by code, ready for rooms.json.
func (l *Legend) Rooms() []Room {
	if l == nil {
		return nil
	}
	rooms := make([]Room, 0, len(l.rooms))
	for code, address := range l.rooms {
		rooms = append(rooms, Room{Code: code, Address: address})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms
}
