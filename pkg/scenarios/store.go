// Package scenarios lists recorded automation scenarios from disk and
// provides the scenario list panel.
package scenarios

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// FileName is the scenario document inside each scenario directory.
const FileName = "scenario.json"

// Scenario is the summary of one recorded scenario.
type Scenario struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	CreatedAt       string         `json:"created_at"`
	DurationMS      int64          `json:"duration_ms"`
	ActionCount     int            `json:"action_count"`
	ScreenshotCount int            `json:"screenshot_count"`
	Device          map[string]any `json:"device"`
	Path            string         `json:"file_path"`
}

// Created parses CreatedAt. The zero time is returned when it is unparseable.
func (s Scenario) Created() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Duration is DurationMS as a time.Duration.
func (s Scenario) Duration() time.Duration {
	return time.Duration(s.DurationMS) * time.Millisecond
}

type document struct {
	Metadata struct {
		Name        string         `json:"name"`
		Description *string        `json:"description"`
		CreatedAt   string         `json:"created_at"`
		DurationMS  int64          `json:"duration_ms"`
		Device      map[string]any `json:"device"`
	} `json:"metadata"`
	Actions []json.RawMessage `json:"actions"`
}

// Store reads scenarios from Dir/<name>/scenario.json.
type Store struct {
	Dir string
}

// Load reads a single scenario directory.
func (s Store) Load(dir string) (Scenario, error) {
	file := filepath.Join(dir, FileName)
	data, err := os.ReadFile(file)
	if err != nil {
		return Scenario{}, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Scenario{}, fmt.Errorf("parse %s: %w", file, err)
	}

	sc := Scenario{
		Name:        doc.Metadata.Name,
		Description: "No description",
		CreatedAt:   doc.Metadata.CreatedAt,
		DurationMS:  doc.Metadata.DurationMS,
		ActionCount: len(doc.Actions),
		Device:      doc.Metadata.Device,
		Path:        file,
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(dir)
	}
	if doc.Metadata.Description != nil {
		sc.Description = *doc.Metadata.Description
	}
	if sc.Device == nil {
		sc.Device = map[string]any{}
	}
	shots, _ := filepath.Glob(filepath.Join(dir, "screenshots", "*.png"))
	sc.ScreenshotCount = len(shots)
	return sc, nil
}

// List returns every readable scenario, newest first. Directories without a
// scenario document or with a malformed one are skipped. A missing Dir is
// an empty list.
func (s Store) List() ([]Scenario, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scenarios dir: %w", err)
	}

	var out []Scenario
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sc, err := s.Load(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, sc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

// Rank orders scenarios for query: names or descriptions containing it come
// first in their existing order, the rest follow by edit distance of the name.
func Rank(query string, list []Scenario) []Scenario {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}

	type scored struct {
		sc   Scenario
		dist int
	}
	var hits []Scenario
	var rest []scored
	for _, sc := range list {
		name := strings.ToLower(sc.Name)
		if strings.Contains(name, q) || strings.Contains(strings.ToLower(sc.Description), q) {
			hits = append(hits, sc)
			continue
		}
		rest = append(rest, scored{sc: sc, dist: levenshtein.ComputeDistance(q, name)})
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].dist < rest[j].dist })

	out := make([]Scenario, 0, len(list))
	out = append(out, hits...)
	for _, r := range rest {
		out = append(out, r.sc)
	}
	return out
}
