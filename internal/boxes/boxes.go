// Package boxes persists the shopping and utility click targets.
package boxes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dd2-manager/internal/models"
	"dd2-manager/pkg/core"
)

const (
	ShoppingCount = 8
	UtilityCount  = 3

	DefaultFile = "boxes.json"
)

// ErrMalformed marks a boxes file that was discarded in favour of defaults.
var ErrMalformed = errors.New("malformed boxes file")

// Set is the complete on-disk state.
type Set struct {
	Shopping [ShoppingCount]models.Point
	Utility  [UtilityCount]models.Point
}

// default grid: one row of shopping boxes, utility boxes on the row below
const (
	defaultLeft    = 200
	defaultTop     = 300
	defaultSpacing = 100
)

func Defaults() Set {
	var s Set
	for i := range s.Shopping {
		s.Shopping[i] = models.Point{X: defaultLeft + i*defaultSpacing, Y: defaultTop}
	}
	for i := range s.Utility {
		s.Utility[i] = models.Point{X: defaultLeft + i*defaultSpacing, Y: defaultTop + defaultSpacing}
	}
	return s
}

type filePoint struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type fileSet struct {
	ShoppingBoxes []filePoint `json:"shoppingBoxes"`
	UtilityBoxes  []filePoint `json:"utilityBoxes"`
}

type outPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type outSet struct {
	ShoppingBoxes []outPoint `json:"shoppingBoxes"`
	UtilityBoxes  []outPoint `json:"utilityBoxes"`
}

// Decode parses a boxes document. Anything other than exactly two keys with
// exactly 8 and 3 integer points is rejected; nothing is partially kept.
func Decode(data []byte) (Set, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var f fileSet
	if err := dec.Decode(&f); err != nil {
		return Defaults(), fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Defaults(), fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	if len(f.ShoppingBoxes) != ShoppingCount {
		return Defaults(), fmt.Errorf("%w: want %d shoppingBoxes, got %d", ErrMalformed, ShoppingCount, len(f.ShoppingBoxes))
	}
	if len(f.UtilityBoxes) != UtilityCount {
		return Defaults(), fmt.Errorf("%w: want %d utilityBoxes, got %d", ErrMalformed, UtilityCount, len(f.UtilityBoxes))
	}

	var s Set
	for i, p := range f.ShoppingBoxes {
		if p.X == nil || p.Y == nil {
			return Defaults(), fmt.Errorf("%w: shoppingBoxes[%d] missing x or y", ErrMalformed, i)
		}
		s.Shopping[i] = models.Point{X: *p.X, Y: *p.Y}
	}
	for i, p := range f.UtilityBoxes {
		if p.X == nil || p.Y == nil {
			return Defaults(), fmt.Errorf("%w: utilityBoxes[%d] missing x or y", ErrMalformed, i)
		}
		s.Utility[i] = models.Point{X: *p.X, Y: *p.Y}
	}
	return s, nil
}

// Encode renders s in the on-disk format.
func Encode(s Set) ([]byte, error) {
	out := outSet{
		ShoppingBoxes: make([]outPoint, 0, ShoppingCount),
		UtilityBoxes:  make([]outPoint, 0, UtilityCount),
	}
	for _, p := range s.Shopping {
		out.ShoppingBoxes = append(out.ShoppingBoxes, outPoint(p))
	}
	for _, p := range s.Utility {
		out.UtilityBoxes = append(out.UtilityBoxes, outPoint(p))
	}
	return json.MarshalIndent(out, "", "  ")
}

// Store loads and saves a Set at a fixed path.
type Store struct {
	path     string
	log      core.Logger
	reporter core.Reporter
}

func NewStore(path string, log core.Logger, reporter core.Reporter) *Store {
	return &Store{path: path, log: log, reporter: reporter}
}

func (s *Store) Path() string {
	return s.path
}

// Load always returns a usable Set. A missing file silently yields
// defaults; an unreadable or malformed one is reported first.
func (s *Store) Load() Set {
	set, err := LoadFrom(s.path)
	switch {
	case err == nil:
		s.log.Debug("Box positions loaded", "path", s.path)
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("No saved box positions, using defaults", "path", s.path)
	default:
		s.log.Warn("Box positions discarded", "path", s.path, "error", err)
		s.reporter.Report(fmt.Sprintf("Box positions file invalid, using defaults: %v", err))
	}
	return set
}

// LoadFrom reads path, returning defaults alongside any error.
func LoadFrom(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), fmt.Errorf("failed to read boxes file: %w", err)
	}
	return Decode(data)
}

// Save writes set atomically.
func (s *Store) Save(set Set) error {
	data, err := Encode(set)
	if err != nil {
		return fmt.Errorf("failed to marshal boxes: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create boxes directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write boxes file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename boxes file: %w", err)
	}

	s.log.Info("Box positions saved", "path", s.path)
	return nil
}

// Reset overwrites the file with defaults.
func (s *Store) Reset() (Set, error) {
	d := Defaults()
	return d, s.Save(d)
}

// Seed flattens a Set into the overlay marker order: shopping then utility.
func (s Set) Seed() []models.Point {
	out := make([]models.Point, 0, ShoppingCount+UtilityCount)
	out = append(out, s.Shopping[:]...)
	out = append(out, s.Utility[:]...)
	return out
}

// FromPositions is the inverse of Seed.
func FromPositions(points []models.Point) (Set, error) {
	if len(points) != ShoppingCount+UtilityCount {
		return Set{}, fmt.Errorf("want %d positions, got %d", ShoppingCount+UtilityCount, len(points))
	}
	var s Set
	copy(s.Shopping[:], points[:ShoppingCount])
	copy(s.Utility[:], points[ShoppingCount:])
	return s, nil
}
