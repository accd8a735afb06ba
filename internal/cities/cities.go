// Package cities resolves city names to IANA timezones from a small
// configuration-loaded table and formats dates for the target locale.
package cities

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var defaultTable []byte

type tableSpec struct {
	Timezones map[string]string `yaml:"timezones"`
	Months    []string          `yaml:"months"`
	Weekdays  []string          `yaml:"weekdays"`
}

type Table struct {
	zones    map[string]*time.Location
	months   []string
	weekdays []string
}

// Load reads the city table from path, or the built-in table when path
// is empty. Entries naming an unknown IANA zone are skipped with no
// error; a table that loads zero zones is a configuration error.
func Load(path string) (*Table, error) {
	raw := defaultTable
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cities file: %w", err)
		}
		raw = b
	}
	var spec tableSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse cities file: %w", err)
	}
	t := &Table{
		zones:    make(map[string]*time.Location, len(spec.Timezones)),
		months:   spec.Months,
		weekdays: spec.Weekdays,
	}
	for city, zone := range spec.Timezones {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			continue
		}
		t.zones[normalizeCity(city)] = loc
	}
	if len(t.zones) == 0 {
		return nil, fmt.Errorf("cities table has no usable timezone entries")
	}
	if len(t.months) != 12 || len(t.weekdays) != 7 {
		return nil, fmt.Errorf("cities table needs 12 months and 7 weekdays")
	}
	return t, nil
}

// Resolve returns the timezone of a named city, or false when the city
// is not in the table. Callers fall back to the configured default.
func (t *Table) Resolve(city string) (*time.Location, bool) {
	loc, ok := t.zones[normalizeCity(city)]
	return loc, ok
}

// FormatDate renders a localized long date, e.g. "e hene, 1 shtator 2026".
func (t *Table) FormatDate(tm time.Time) string {
	return fmt.Sprintf("%s, %d %s %d",
		t.weekdays[int(tm.Weekday())], tm.Day(), t.months[int(tm.Month())-1], tm.Year())
}

func normalizeCity(city string) string {
	c := strings.ToLower(strings.TrimSpace(city))
	c = strings.ReplaceAll(c, "ë", "e")
	c = strings.ReplaceAll(c, "ç", "c")
	return c
}
