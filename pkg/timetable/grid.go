package timetable

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExpandTable flattens a <table> selection into a rectangular string
// grid, duplicating rowspan/colspan cells into every slot they cover so
// later passes can index columns without span bookkeeping.
func ExpandTable(table *goquery.Selection) [][]string {
	type span struct {
		rows int
		text string
	}

	var grid [][]string
	spans := map[int]*span{}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		col := 0
		fillSpans := func() {
			for {
				s, ok := spans[col]
				if !ok {
					return
				}
				row = append(row, s.text)
				s.rows--
				if s.rows <= 0 {
					delete(spans, col)
				}
				col++
			}
		}

		fillSpans()
		tr.ChildrenFiltered("td,th").Each(func(_ int, cell *goquery.Selection) {
			fillSpans()
			text := CellText(cell)
			rowspan := intAttr(cell, "rowspan")
			colspan := intAttr(cell, "colspan")
			for i := 0; i < colspan; i++ {
				row = append(row, text)
				if rowspan > 1 {
					spans[col] = &span{rows: rowspan - 1, text: text}
				}
				col++
			}
		})
		fillSpans()
		grid = append(grid, row)
	})

	maxCols := 0
	for _, row := range grid {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	for i, row := range grid {
		for len(row) < maxCols {
			row = append(row, "")
		}
		grid[i] = row
	}
	return grid
}

// CellText extracts a cell's text with one line per text node, so <br/>
// separated fragments stay separable. Blank-line runs in the source are
// kept as a single empty line: they separate sessions sharing a cell.
func CellText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	var lines []string
	pendingBlank := false
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		line = CollapseSpace(line)
		if line == "" {
			pendingBlank = true
			continue
		}
		if pendingBlank && len(lines) > 0 {
			lines = append(lines, "")
		}
		pendingBlank = false
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FlatText extracts a node's text as a single space-collapsed line, with
// a space between adjacent text nodes.
func FlatText(sel *goquery.Selection) string {
	return CollapseSpace(strings.ReplaceAll(CellText(sel), "\n", " "))
}

func intAttr(sel *goquery.Selection, name string) int {
	raw, ok := sel.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
