// Package discounts validates the configured student-discount offers
// and builds the published payload. Invalid offers are rejected
// individually; the build itself never aborts over one bad item.
package discounts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Ronuhz/ubborarservice/pkg/pipeline"
)

// ValidationError names the offer and field that failed validation.
type ValidationError struct {
	OfferID string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.OfferID == "" {
		return fmt.Sprintf("offer: %q %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %q %s", e.OfferID, e.Field, e.Reason)
}

// Color is an RGB triple with channels in [0,1].
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

type rawColor struct {
	Red   *float64 `json:"red"`
	Green *float64 `json:"green"`
	Blue  *float64 `json:"blue"`
}

// RawOffer is one not-yet-validated offer from configuration.
type RawOffer struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Badge       string    `json:"badge"`
	URL         string    `json:"url"`
	SymbolName  string    `json:"symbolName"`
	TopColor    *rawColor `json:"topColor"`
	BottomColor *rawColor `json:"bottomColor"`
	AccentColor *rawColor `json:"accentColor"`
}

// Offer is one validated offer.
type Offer struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Badge       string `json:"badge"`
	URL         string `json:"url"`
	SymbolName  string `json:"symbolName"`
	TopColor    Color  `json:"topColor"`
	BottomColor Color  `json:"bottomColor"`
	AccentColor Color  `json:"accentColor"`
}

// Payload is the published discounts artifact.
type Payload struct {
	Version     int     `json:"version"`
	GeneratedAt string  `json:"generatedAt"`
	Items       []Offer `json:"items"`
}

// LoadRaw reads the discounts config. A missing file means no offers.
func LoadRaw(path string) ([]RawOffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read discounts config: %w", err)
	}
	var payload struct {
		Items []RawOffer `json:"items"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse discounts config: %w", err)
	}
	if payload.Items == nil {
		return nil, fmt.Errorf("expected an object with an 'items' array")
	}
	return payload.Items, nil
}

func validateColor(color *rawColor, offerID, field string) (Color, error) {
	if color == nil {
		return Color{}, &ValidationError{OfferID: offerID, Field: field, Reason: "must be an object with red/green/blue"}
	}
	channels := []struct {
		name  string
		value *float64
	}{
		{"red", color.Red},
		{"green", color.Green},
		{"blue", color.Blue},
	}
	var out Color
	targets := []*float64{&out.Red, &out.Green, &out.Blue}
	for i, channel := range channels {
		if channel.value == nil {
			return Color{}, &ValidationError{OfferID: offerID, Field: field + "." + channel.name, Reason: "is required"}
		}
		if *channel.value < 0 || *channel.value > 1 {
			return Color{}, &ValidationError{OfferID: offerID, Field: field + "." + channel.name, Reason: "must be between 0 and 1"}
		}
		*targets[i] = *channel.value
	}
	return out, nil
}

func validateOffer(raw RawOffer) (Offer, error) {
	offer := Offer{
		ID:         strings.TrimSpace(raw.ID),
		Title:      strings.TrimSpace(raw.Title),
		Subtitle:   strings.TrimSpace(raw.Subtitle),
		Badge:      strings.TrimSpace(raw.Badge),
		URL:        strings.TrimSpace(raw.URL),
		SymbolName: strings.TrimSpace(raw.SymbolName),
	}
	if offer.ID == "" {
		return Offer{}, &ValidationError{Field: "id", Reason: "cannot be empty"}
	}
	required := []struct {
		name  string
		value string
	}{
		{"title", offer.Title},
		{"subtitle", offer.Subtitle},
		{"badge", offer.Badge},
		{"url", offer.URL},
		{"symbolName", offer.SymbolName},
	}
	for _, field := range required {
		if field.value == "" {
			return Offer{}, &ValidationError{OfferID: offer.ID, Field: field.name, Reason: "cannot be empty"}
		}
	}

	var err error
	if offer.TopColor, err = validateColor(raw.TopColor, offer.ID, "topColor"); err != nil {
		return Offer{}, err
	}
	if offer.BottomColor, err = validateColor(raw.BottomColor, offer.ID, "bottomColor"); err != nil {
		return Offer{}, err
	}
	if offer.AccentColor, err = validateColor(raw.AccentColor, offer.ID, "accentColor"); err != nil {
		return Offer{}, err
	}
	return offer, nil
}

// Normalize validates each offer and dedupes by id, first occurrence
// winning. Each invalid offer contributes one error and is dropped; the
// valid ones still go through.
func Normalize(raw []RawOffer) ([]Offer, []error) {
	var offers []Offer
	var errs []error
	seen := map[string]bool{}
	for _, item := range raw {
		offer, err := validateOffer(item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[offer.ID] {
			continue
		}
		seen[offer.ID] = true
		offers = append(offers, offer)
	}
	return offers, errs
}

// Build wraps validated offers in the versioned payload.
func Build(offers []Offer, now time.Time) *Payload {
	if offers == nil {
		offers = []Offer{}
	}
	return &Payload{
		Version:     pipeline.Version,
		GeneratedAt: now.UTC().Format("2006-01-02T15:04:05Z"),
		Items:       offers,
	}
}
