package legend

import (
	"testing"
)

const legendHTML = `<html><body>
<table>
<tr><th>Sala</th><th>Localizarea</th></tr>
<tr><td>A303</td><td>Cladirea centrala, str. M. Kogalniceanu 1</td></tr>
<tr><td>L302; L303</td><td>Cladirea FSEGA, str. T. Mihali 58-60</td></tr>
<tr><td>A303</td><td>alt loc care nu trebuie sa castige</td></tr>
</table>
</body></html>`

func TestParseLegend(t *testing.T) {
	l, err := Parse([]byte(legendHTML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// A303, the combined "L302; L303" code, and its two parts.
	if l.Len() != 4 {
		t.Errorf("Len = %d, want 4", l.Len())
	}

	address, ok := l.Lookup("A303")
	if !ok {
		t.Fatal("expected A303 to resolve")
	}
	if address != "Cladirea centrala, str. M. Kogalniceanu 1" {
		t.Errorf("first occurrence should win, got %q", address)
	}

	if _, ok := l.Lookup("L303"); !ok {
		t.Error("expected the split code L303 to resolve")
	}
}

func TestLegendLookupByToken(t *testing.T) {
	l, err := Parse([]byte(legendHTML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	address, ok := l.Lookup("sala A303")
	if !ok || address != "Cladirea centrala, str. M. Kogalniceanu 1" {
		t.Errorf("token lookup failed: %q, %v", address, ok)
	}
	if _, ok := l.Lookup("sala necunoscuta"); ok {
		t.Error("expected an unknown room to not resolve")
	}
	if _, ok := l.Lookup(""); ok {
		t.Error("expected an empty room to not resolve")
	}
}

func TestLegendNilReceiver(t *testing.T) {
	var l *Legend
	if l.Len() != 0 {
		t.Error("nil legend should have length 0")
	}
	if _, ok := l.Lookup("A303"); ok {
		t.Error("nil legend should resolve nothing")
	}
	if rooms := l.Rooms(); rooms != nil {
		t.Errorf("nil legend should list no rooms, got %v", rooms)
	}
}

func TestLegendRoomsSorted(t *testing.T) {
	l, err := Parse([]byte(legendHTML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rooms := l.Rooms()
	for i := 1; i < len(rooms); i++ {
		if rooms[i-1].Code >= rooms[i].Code {
			t.Fatalf("rooms are not sorted by code: %v", rooms)
		}
	}
}
