package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// WeatherSnapshot is one current-conditions reading. Values are only
// ever what the provider returned; nothing here is defaulted.
type WeatherSnapshot struct {
	City        string
	Description string
	Temperature float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
}

type WeatherProvider interface {
	CurrentWeather(ctx context.Context, city string) (*WeatherSnapshot, error)
}

// OpenWeatherClient calls the OpenWeather current-weather API. Lookups
// are cached per city for a short TTL so repeated questions within a
// minute do not hit the provider again.
type OpenWeatherClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	lang       string

	mu    sync.Mutex
	cache map[string]cachedWeather
	ttl   time.Duration
}

type cachedWeather struct {
	snap    WeatherSnapshot
	fetched time.Time
}

func NewOpenWeatherClient(apiKey, lang string) *OpenWeatherClient {
	return &OpenWeatherClient{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    "https://api.openweathermap.org",
		apiKey:     apiKey,
		lang:       lang,
		cache:      make(map[string]cachedWeather),
		ttl:        60 * time.Second,
	}
}

type openWeatherResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, city string) (*WeatherSnapshot, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return nil, fmt.Errorf("city is required")
	}

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok && time.Since(cached.fetched) < c.ttl {
		snap := cached.snap
		c.mu.Unlock()
		return &snap, nil
	}
	c.mu.Unlock()

	qv := url.Values{}
	qv.Set("q", city)
	qv.Set("appid", c.apiKey)
	qv.Set("units", "metric")
	if c.lang != "" {
		qv.Set("lang", c.lang)
	}
	var resp openWeatherResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/data/2.5/weather?"+qv.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Weather) == 0 {
		return nil, fmt.Errorf("weather response missing conditions for %q", city)
	}

	snap := WeatherSnapshot{
		City:        resp.Name,
		Description: resp.Weather[0].Description,
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
	}
	if snap.City == "" {
		snap.City = titleCase(key)
	}

	c.mu.Lock()
	c.cache[key] = cachedWeather{snap: snap, fetched: time.Now()}
	c.mu.Unlock()
	return &snap, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
