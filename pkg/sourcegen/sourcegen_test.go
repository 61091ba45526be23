package sourcegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Ronuhz/ubborarservice/pkg/scraper"
)

const indexHTML = `<html><body>
<table>
<tr><td colspan="2">Studii Licenta</td></tr>
<tr><td>Matematica Informatica</td>
<td><a href="MI1.html">Anul 1</a> <a href="MI2.html">Anul 2</a></td></tr>
<tr><td>Specializarea Matematica Informatica in limba romana</td><td></td></tr>
<tr><td>Informatica</td>
<td><a href="I1.html">Anul 1</a> <a href="index.html">Index</a></td></tr>
<tr><td colspan="2">Studii Master</td></tr>
<tr><td>Data Science</td>
<td><a href="DS1.html">Anul 1</a></td></tr>
</table>
</body></html>`

const groupedPageHTML = `<html><body>
<h2>Grupa 511</h2>
<table>
<tr><th>Ziua</th><th>Orele</th><th>Sala</th><th>Tipul</th><th>Disciplina</th></tr>
<tr><td>Luni</td><td>8-10</td><td>A303</td><td>Curs</td><td>Analiza</td></tr>
</table>
<h2>Grupa 512</h2>
<table>
<tr><th>Ziua</th><th>Orele</th><th>Sala</th><th>Tipul</th><th>Disciplina</th></tr>
<tr><td>Marti</td><td>10-12</td><td>A2</td><td>Seminar</td><td>Logica</td></tr>
</table>
</body></html>`

type fakeFetcher struct {
	pages map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*scraper.Page, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("connection refused: %s", url)
	}
	return &scraper.Page{Body: body}, nil
}

const indexURL = "https://example.com/tabelar/index.html"

func TestGenerateFromIndex(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]byte{indexURL: []byte(indexHTML)}}

	file, failures, err := Generate(context.Background(), fetcher, Options{
		IndexURL:     indexURL,
		AcademicYear: "2025-2026",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("unexpected failures: %v", failures)
	}
	if file.AcademicYear != "2025-2026" {
		t.Errorf("academicYear = %q", file.AcademicYear)
	}

	// Bachelor programs only; "Specializarea" rows and index links skipped.
	if len(file.Programs) != 3 {
		t.Fatalf("got %d sources, want 3: %+v", len(file.Programs), file.Programs)
	}
	if file.Programs[0].ProgramID != "informatica" {
		t.Errorf("sources not sorted by program id: %+v", file.Programs[0])
	}

	mi := file.Programs[1]
	if mi.ProgramID != "matematica-informatica" || mi.Year != 1 {
		t.Errorf("source = %+v", mi)
	}
	if mi.URL != "https://example.com/tabelar/MI1.html" {
		t.Errorf("relative link not resolved: %q", mi.URL)
	}
	if mi.Groups == nil || len(mi.Groups) != 0 {
		t.Errorf("groups should be an empty list without detection, got %v", mi.Groups)
	}
}

func TestGenerateIncludesMaster(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]byte{indexURL: []byte(indexHTML)}}

	file, _, err := Generate(context.Background(), fetcher, Options{
		IndexURL:      indexURL,
		AcademicYear:  "2025-2026",
		IncludeMaster: true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(file.Programs) != 4 {
		t.Fatalf("got %d sources, want 4 with master programs", len(file.Programs))
	}
	if file.Programs[0].ProgramID != "data-science" {
		t.Errorf("missing master program: %+v", file.Programs)
	}
}

func TestGenerateDetectsGroups(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]byte{
		indexURL:                               []byte(indexHTML),
		"https://example.com/tabelar/MI1.html": []byte(groupedPageHTML),
		"https://example.com/tabelar/MI2.html": []byte("<html><body><p>gol</p></body></html>"),
		"https://example.com/tabelar/I1.html":  []byte(groupedPageHTML),
	}}

	file, failures, err := Generate(context.Background(), fetcher, Options{
		IndexURL:     indexURL,
		AcademicYear: "2025-2026",
		DetectGroups: true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// The unparsable year-2 page is reported, not fatal.
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1: %v", len(failures), failures)
	}

	var mi1 *GeneratedSource
	for i := range file.Programs {
		if file.Programs[i].ProgramID == "matematica-informatica" && file.Programs[i].Year == 1 {
			mi1 = &file.Programs[i]
		}
	}
	if mi1 == nil {
		t.Fatal("matematica-informatica year 1 missing")
	}
	if !reflect.DeepEqual(mi1.Groups, []int{511, 512}) {
		t.Errorf("detected groups = %v, want [511 512]", mi1.Groups)
	}
}

func TestGenerateProgramMapOverrides(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]byte{indexURL: []byte(indexHTML)}}

	file, _, err := Generate(context.Background(), fetcher, Options{
		IndexURL:     indexURL,
		AcademicYear: "2025-2026",
		ProgramMap: map[string]ProgramMapping{
			"Matematica Informatica": {ID: "mate-info", Title: "Matematică Informatică"},
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	found := false
	for _, src := range file.Programs {
		if src.ProgramID == "mate-info" {
			found = true
			if src.Title != "Matematică Informatică" {
				t.Errorf("title = %q", src.Title)
			}
		}
		if src.ProgramID == "matematica-informatica" {
			t.Error("mapped program should not keep its generated id")
		}
	}
	if !found {
		t.Error("program map override was not applied")
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, _, err := Generate(context.Background(), &fakeFetcher{}, Options{IndexURL: indexURL}); err == nil {
		t.Error("expected an error when the index fetch fails")
	}

	empty := &fakeFetcher{pages: map[string][]byte{indexURL: []byte("<html><body><table></table></body></html>")}}
	if _, _, err := Generate(context.Background(), empty, Options{IndexURL: indexURL}); err == nil {
		t.Error("expected an error when no rows are discovered")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Matematică Informatică":   "matematica-informatica",
		"Informatica (in engleza)": "informatica-in-engleza",
		"  ":                       "program",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLoadProgramMapForms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	content := `{
		"Matematica Informatica": "mate-info",
		"informatica": {"id": "info", "title": "Informatica"}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	programMap, err := LoadProgramMap(path)
	if err != nil {
		t.Fatalf("LoadProgramMap failed: %v", err)
	}
	if programMap["Matematica Informatica"].ID != "mate-info" {
		t.Errorf("string form not parsed: %+v", programMap)
	}
	if programMap["informatica"].ID != "info" || programMap["informatica"].Title != "Informatica" {
		t.Errorf("object form not parsed: %+v", programMap)
	}
}
