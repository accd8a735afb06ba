// Package assemble resolves the external facts an answer needs: local
// time in the right timezone, current weather, traffic ETAs, and web
// search snippets. Every fact is fully resolved here and handed over
// as text; nothing is left for the language model to guess.
package assemble

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"luna-voice-backend/internal/cities"
	"luna-voice-backend/internal/providers"
)

// Fixed fail-visible sentences. Unavailability is stated plainly,
// never masked with plausible-looking values.
const (
	WeatherUnavailable = "Nuk e marr dot motin tani."
	TrafficUnavailable = "Nuk i marr dot te dhenat e trafikut tani."
	TrafficNeedsRoute  = "Nga ku dhe per ku do te udhetosh? Me thuaj p.sh.: trafiku nga Tirana ne Durres."
)

type Assembler struct {
	weather providers.WeatherProvider
	traffic providers.TrafficProvider
	search  providers.SearchProvider
	cities  *cities.Table

	defaultCity string
	defaultZone *time.Location

	// now is the clock; tests pin it.
	now func() time.Time
}

func New(weather providers.WeatherProvider, traffic providers.TrafficProvider, search providers.SearchProvider,
	table *cities.Table, defaultCity string, defaultZone *time.Location) *Assembler {
	return &Assembler{
		weather:     weather,
		traffic:     traffic,
		search:      search,
		cities:      table,
		defaultCity: defaultCity,
		defaultZone: defaultZone,
		now:         time.Now,
	}
}

// SetClock replaces the wall clock, for tests.
func (a *Assembler) SetClock(now func() time.Time) { a.now = now }

// zoneFor resolves a city to its timezone; unknown or empty cities use
// the configured default zone.
func (a *Assembler) zoneFor(city string) (*time.Location, bool) {
	if strings.TrimSpace(city) == "" {
		return a.defaultZone, false
	}
	if loc, ok := a.cities.Resolve(city); ok {
		return loc, true
	}
	return a.defaultZone, false
}

// TimeAnswer is the deterministic local answer to a time query.
func (a *Assembler) TimeAnswer(city string) string {
	loc, named := a.zoneFor(city)
	t := a.now().In(loc)
	if named {
		return fmt.Sprintf("Ora ne %s eshte %s.", titleCase(city), t.Format("15:04"))
	}
	return fmt.Sprintf("Ora tani eshte %s.", t.Format("15:04"))
}

// DateAnswer is the deterministic local answer to a date query, in the
// default zone.
func (a *Assembler) DateAnswer() string {
	return fmt.Sprintf("Sot eshte %s.", a.cities.FormatDate(a.now().In(a.defaultZone)))
}

// TimeAnswerInZone formats the time in an explicit IANA zone, for
// requests that carry their own timezone. Unrecognized zones fall back
// to the configured default.
func (a *Assembler) TimeAnswerInZone(zoneName string) string {
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		loc = a.defaultZone
	}
	return fmt.Sprintf("Ora tani eshte %s.", a.now().In(loc).Format("15:04"))
}

// TimeLine is the labelled time fact for context blocks and the system
// turn, including the localized full date.
func (a *Assembler) TimeLine() string {
	t := a.now().In(a.defaultZone)
	return fmt.Sprintf("Ora tani: %s, %s", t.Format("15:04"), a.cities.FormatDate(t))
}

// WeatherAnswer is the deterministic local answer to a weather query.
// Provider failure yields the fixed unavailability sentence.
func (a *Assembler) WeatherAnswer(ctx context.Context, city string) string {
	if strings.TrimSpace(city) == "" {
		city = a.defaultCity
	}
	snap, err := a.weather.CurrentWeather(ctx, city)
	if err != nil {
		log.Printf("[weather] %s: %v", city, err)
		return WeatherUnavailable
	}
	return fmt.Sprintf("Moti ne %s: %s. Temperatura %s°C (ndjehet %s°C). Lageshtia %d%%. Era %s m/s.",
		snap.City, snap.Description,
		formatNum(snap.Temperature), formatNum(snap.FeelsLike),
		snap.Humidity, formatNum(snap.WindSpeed))
}

// WeatherLine is the labelled weather fact for context blocks; false
// means the fact is omitted, never defaulted.
func (a *Assembler) WeatherLine(ctx context.Context, city string) (string, bool) {
	if strings.TrimSpace(city) == "" {
		city = a.defaultCity
	}
	snap, err := a.weather.CurrentWeather(ctx, city)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("Moti: %s, %s, %s°C", snap.City, snap.Description, formatNum(snap.Temperature)), true
}

// TrafficAnswer is the deterministic local answer to a traffic query.
// A missing route phrase gets a clarifying question, not an error.
func (a *Assembler) TrafficAnswer(ctx context.Context, from, to string) string {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return TrafficNeedsRoute
	}
	sum, err := a.traffic.Route(ctx, from, to)
	if err != nil {
		log.Printf("[traffic] %s -> %s: %v", from, to, err)
		return TrafficUnavailable
	}
	minutes := int(math.Round(float64(sum.TravelSeconds) / 60))
	delay := int(math.Round(float64(sum.DelaySeconds) / 60))
	km := float64(sum.DistanceMeters) / 1000
	answer := fmt.Sprintf("Rruga nga %s ne %s zgjat rreth %d minuta (%.1f km).",
		titleCase(from), titleCase(to), minutes, km)
	if delay > 0 {
		answer += fmt.Sprintf(" Vonesa nga trafiku rreth %d minuta.", delay)
	} else {
		answer += " Trafiku eshte i lire."
	}
	return answer
}

// ContextBlock builds the labelled fact block attached to a general
// query before it reaches the language model: current time, current
// weather when available, and top web snippets as unlabelled lines.
func (a *Assembler) ContextBlock(ctx context.Context, query, city string) string {
	lines := []string{a.TimeLine()}
	if w, ok := a.WeatherLine(ctx, city); ok {
		lines = append(lines, w)
	}
	if a.search != nil {
		snippets, err := a.search.Search(ctx, query, 3)
		if err != nil {
			log.Printf("[search] %q: %v", query, err)
		}
		lines = append(lines, snippets...)
	}
	return strings.Join(lines, "\n")
}

func formatNum(v float64) string {
	r := math.Round(v*10) / 10
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
