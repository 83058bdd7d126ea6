package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultSpotsFile is read from the working directory when present
const DefaultSpotsFile = "duckdive_spots.json"

var spotIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// Spot is a named Surfline surf spot
type Spot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var defaultSpots = []Spot{
	{ID: "5842041f4e65fad6a7708839", Name: "Scripps"},
	{ID: "5842041f4e65fad6a77088cc", Name: "LJ Shores"},
	{ID: "5842041f4e65fad6a770883b", Name: "Blacks"},
	{ID: "5842041f4e65fad6a77088c4", Name: "Tourmo"},
	{ID: "5842041f4e65fad6a7708842", Name: "Mission"},
	{ID: "5842041f4e65fad6a7708841", Name: "PB"},
	{ID: "5842041f4e65fad6a770883f", Name: "OB"},
	{ID: "5842041f4e65fad6a77088af", Name: "Del Mar"},
}

// DefaultSpots returns the built-in San Diego spots
func DefaultSpots() []Spot {
	out := make([]Spot, len(defaultSpots))
	copy(out, defaultSpots)
	return out
}

// SpotDirectory maps spot ids to display names. It is built once at startup
// and read-only afterwards.
type SpotDirectory struct {
	defaults []string
	names    map[string]string
	byName   map[string]string
}

func NewSpotDirectory(spots []Spot) *SpotDirectory {
	d := &SpotDirectory{
		names:  make(map[string]string),
		byName: make(map[string]string),
	}
	for _, s := range defaultSpots {
		d.add(s)
	}
	for _, s := range spots {
		d.add(s)
		d.defaults = append(d.defaults, s.ID)
	}
	if len(d.defaults) == 0 {
		for _, s := range defaultSpots {
			d.defaults = append(d.defaults, s.ID)
		}
	}
	return d
}

func (d *SpotDirectory) add(s Spot) {
	d.names[s.ID] = s.Name
	d.byName[strings.ToLower(s.Name)] = s.ID
}

// LoadSpotDirectory reads a JSON object of name to spot id. When the file
// does not exist the built-in spots are used. Spots from the file become the
// default spot list, in file order.
func LoadSpotDirectory(path string) (*SpotDirectory, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("No spots file, using built-in spots")
		return NewSpotDirectory(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening spots file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing spots file")
		}
	}()

	spots, err := readSpots(f)
	if err != nil {
		return nil, fmt.Errorf("reading spots file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("spots", len(spots)).Msg("Loaded spots file")
	return NewSpotDirectory(spots), nil
}

// readSpots decodes {"Name": "id", ...} keeping the object's key order
func readSpots(r io.Reader) ([]Spot, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object of spot name to id")
	}

	var spots []Spot
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)

		var id string
		if err := dec.Decode(&id); err != nil {
			return nil, fmt.Errorf("spot %q: %w", name, err)
		}
		if id == "" {
			return nil, fmt.Errorf("spot %q has an empty id", name)
		}
		spots = append(spots, Spot{ID: id, Name: name})
	}
	return spots, nil
}

// Name returns the display name for a spot id, or the id itself when unknown
func (d *SpotDirectory) Name(spotID string) string {
	if name, ok := d.names[spotID]; ok {
		return name
	}
	return spotID
}

// DefaultIDs returns the spots to report on when none are requested
func (d *SpotDirectory) DefaultIDs() []string {
	out := make([]string, len(d.defaults))
	copy(out, d.defaults)
	return out
}

// Resolve accepts a known spot id, a known spot name (any case) or any
// Surfline-style 24 character hex id
func (d *SpotDirectory) Resolve(nameOrID string) (string, error) {
	s := strings.TrimSpace(nameOrID)
	if _, ok := d.names[s]; ok {
		return s, nil
	}
	if id, ok := d.byName[strings.ToLower(s)]; ok {
		return id, nil
	}
	if spotIDPattern.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("unknown spot: %q", nameOrID)
}

// ResolveAll resolves a list of names or ids; an empty list yields the defaults
func (d *SpotDirectory) ResolveAll(namesOrIDs []string) ([]string, error) {
	if len(namesOrIDs) == 0 {
		return d.DefaultIDs(), nil
	}
	out := make([]string, 0, len(namesOrIDs))
	for _, s := range namesOrIDs {
		id, err := d.Resolve(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
