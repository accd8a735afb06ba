package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RouteSummary is a routed ETA between two geocoded places with live
// traffic weighting.
type RouteSummary struct {
	TravelSeconds  int
	DelaySeconds   int
	DistanceMeters int
}

type TrafficProvider interface {
	Route(ctx context.Context, from, to string) (*RouteSummary, error)
}

// TomTomClient geocodes two place strings and requests a traffic-aware
// route between them.
type TomTomClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewTomTomClient(apiKey string) *TomTomClient {
	return &TomTomClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.tomtom.com",
		apiKey:     apiKey,
	}
}

type geocodeResponse struct {
	Results []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

type routeResponse struct {
	Routes []struct {
		Summary struct {
			TravelTimeInSeconds   int `json:"travelTimeInSeconds"`
			TrafficDelayInSeconds int `json:"trafficDelayInSeconds"`
			LengthInMeters        int `json:"lengthInMeters"`
		} `json:"summary"`
	} `json:"routes"`
}

func (c *TomTomClient) Route(ctx context.Context, from, to string) (*RouteSummary, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	fromLat, fromLon, err := c.geocode(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", from, err)
	}
	toLat, toLon, err := c.geocode(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", to, err)
	}

	qv := url.Values{}
	qv.Set("key", c.apiKey)
	qv.Set("traffic", "true")
	path := fmt.Sprintf("/routing/1/calculateRoute/%f,%f:%f,%f/json", fromLat, fromLon, toLat, toLon)
	var resp routeResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+path+"?"+qv.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, fmt.Errorf("no route between %q and %q", from, to)
	}
	s := resp.Routes[0].Summary
	return &RouteSummary{
		TravelSeconds:  s.TravelTimeInSeconds,
		DelaySeconds:   s.TrafficDelayInSeconds,
		DistanceMeters: s.LengthInMeters,
	}, nil
}

func (c *TomTomClient) geocode(ctx context.Context, place string) (lat, lon float64, err error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return 0, 0, fmt.Errorf("place is required")
	}
	qv := url.Values{}
	qv.Set("key", c.apiKey)
	qv.Set("limit", "1")
	var resp geocodeResponse
	u := c.baseURL + "/search/2/geocode/" + url.PathEscape(place) + ".json?" + qv.Encode()
	if err := getJSON(ctx, c.httpClient, u, &resp); err != nil {
		return 0, 0, err
	}
	if len(resp.Results) == 0 {
		return 0, 0, fmt.Errorf("place not found")
	}
	return resp.Results[0].Position.Lat, resp.Results[0].Position.Lon, nil
}
