package assemble

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luna-voice-backend/internal/cities"
	"luna-voice-backend/internal/providers"
)

type fakeWeather struct {
	snap *providers.WeatherSnapshot
	err  error
}

func (f fakeWeather) CurrentWeather(context.Context, string) (*providers.WeatherSnapshot, error) {
	return f.snap, f.err
}

type fakeTraffic struct {
	sum *providers.RouteSummary
	err error
}

func (f fakeTraffic) Route(context.Context, string, string) (*providers.RouteSummary, error) {
	return f.sum, f.err
}

type fakeSearch struct {
	snippets []string
	err      error
}

func (f fakeSearch) Search(context.Context, string, int) ([]string, error) {
	return f.snippets, f.err
}

func newAssembler(t *testing.T, w providers.WeatherProvider, tr providers.TrafficProvider, s providers.SearchProvider) *Assembler {
	t.Helper()
	tbl, err := cities.Load("")
	require.NoError(t, err)
	// Fixed UTC+1 zone, no DST surprises in tests.
	zone := time.FixedZone("UTC+1", 3600)
	a := New(w, tr, s, tbl, "Tirana", zone)
	a.SetClock(func() time.Time {
		return time.Date(2026, time.September, 1, 14, 5, 0, 0, time.UTC)
	})
	return a
}

func TestTimeAnswerDefaultZone(t *testing.T) {
	a := newAssembler(t, nil, nil, nil)
	// 14:05 UTC in UTC+1 is 15:05.
	assert.Equal(t, "Ora tani eshte 15:05.", a.TimeAnswer(""))
}

func TestTimeAnswerNamedCity(t *testing.T) {
	a := newAssembler(t, nil, nil, nil)
	// London observes BST (UTC+1) on this date.
	assert.Equal(t, "Ora ne London eshte 15:05.", a.TimeAnswer("london"))
	// Tokyo is UTC+9 year round.
	assert.Equal(t, "Ora ne Tokyo eshte 23:05.", a.TimeAnswer("tokyo"))
}

func TestDateAnswer(t *testing.T) {
	a := newAssembler(t, nil, nil, nil)
	assert.Equal(t, "Sot eshte e marte, 1 shtator 2026.", a.DateAnswer())
}

func TestTimeAnswerInZone(t *testing.T) {
	a := newAssembler(t, nil, nil, nil)
	assert.Equal(t, "Ora tani eshte 23:05.", a.TimeAnswerInZone("Asia/Tokyo"))
	// Unrecognized zone falls back to the default.
	assert.Equal(t, "Ora tani eshte 15:05.", a.TimeAnswerInZone("Mars/Olympus"))
}

func TestTimeAnswerUnknownCityFallsBack(t *testing.T) {
	a := newAssembler(t, nil, nil, nil)
	// Unknown city resolves in the default zone, request never fails.
	assert.Equal(t, "Ora tani eshte 15:05.", a.TimeAnswer("atlantis"))
}

func TestWeatherAnswer(t *testing.T) {
	a := newAssembler(t, fakeWeather{snap: &providers.WeatherSnapshot{
		City: "London", Description: "clear sky",
		Temperature: 10.0, FeelsLike: 8.5, Humidity: 70, WindSpeed: 3.2,
	}}, nil, nil)
	got := a.WeatherAnswer(context.Background(), "London")
	assert.Contains(t, got, "London")
	assert.Contains(t, got, "10")
	assert.Contains(t, got, "clear sky")
}

func TestWeatherAnswerFailVisible(t *testing.T) {
	a := newAssembler(t, fakeWeather{err: errors.New("boom")}, nil, nil)
	got := a.WeatherAnswer(context.Background(), "London")
	assert.Equal(t, WeatherUnavailable, got)
	// Never a fabricated temperature.
	assert.NotContains(t, got, "°C")
}

func TestTrafficAnswer(t *testing.T) {
	a := newAssembler(t, nil, fakeTraffic{sum: &providers.RouteSummary{
		TravelSeconds: 2100, DelaySeconds: 300, DistanceMeters: 39000,
	}}, nil)
	got := a.TrafficAnswer(context.Background(), "tirana", "durres")
	assert.Contains(t, got, "35 minuta")
	assert.Contains(t, got, "39.0 km")
	assert.Contains(t, got, "5 minuta")
}

func TestTrafficAnswerMissingRoute(t *testing.T) {
	a := newAssembler(t, nil, fakeTraffic{}, nil)
	assert.Equal(t, TrafficNeedsRoute, a.TrafficAnswer(context.Background(), "", ""))
}

func TestTrafficAnswerProviderFailure(t *testing.T) {
	a := newAssembler(t, nil, fakeTraffic{err: errors.New("down")}, nil)
	assert.Equal(t, TrafficUnavailable, a.TrafficAnswer(context.Background(), "tirana", "durres"))
}

func TestContextBlock(t *testing.T) {
	a := newAssembler(t,
		fakeWeather{snap: &providers.WeatherSnapshot{City: "Tirana", Description: "vranet", Temperature: 14}},
		nil,
		fakeSearch{snippets: []string{"first snippet", "second snippet"}},
	)
	block := a.ContextBlock(context.Background(), "kush fitoi", "")
	lines := strings.Split(block, "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Ora tani: 15:05"))
	assert.Equal(t, "Moti: Tirana, vranet, 14°C", lines[1])
	assert.Equal(t, "first snippet", lines[2])
}

func TestContextBlockOmitsFailedWeather(t *testing.T) {
	a := newAssembler(t, fakeWeather{err: errors.New("404")}, nil, fakeSearch{})
	block := a.ContextBlock(context.Background(), "pyetje", "")
	assert.NotContains(t, block, "Moti")
	assert.Contains(t, block, "Ora tani:")
}
