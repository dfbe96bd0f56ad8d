package navigation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sightline-labs/sightline/internal/geo"
	"github.com/sightline-labs/sightline/internal/shared"
)

// Planner resolves destinations and produces turn-by-turn routes.
type Planner interface {
	Geocode(ctx context.Context, query string) (geo.Coordinate, error)
	Directions(ctx context.Context, origin geo.Coordinate, destination string, mode TravelMode) (Route, error)
}

type PlannerConfig struct {
	Address string
	APIKey  string
	Timeout time.Duration
}

// HTTPPlanner talks to a Google-style directions service.
type HTTPPlanner struct {
	base   string
	apiKey string
	http   *http.Client
}

func NewHTTPPlanner(cfg PlannerConfig) *HTTPPlanner {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPPlanner{
		base:   strings.TrimRight(cfg.Address, "/"),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
	}
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
			Steps []struct {
				HTMLInstructions string `json:"html_instructions"`
				StartLocation    latLng `json:"start_location"`
				EndLocation      latLng `json:"end_location"`
				Distance         struct {
					Value float64 `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value float64 `json:"value"`
				} `json:"duration"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func (p *HTTPPlanner) Geocode(ctx context.Context, query string) (geo.Coordinate, error) {
	params := url.Values{}
	params.Set("address", query)
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}

	var body geocodeResponse
	if err := p.get(ctx, "/maps/api/geocode/json", params, &body); err != nil {
		return geo.Coordinate{}, err
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return geo.Coordinate{}, fmt.Errorf("geocode %q: %w", query, shared.ErrNoRoute)
	}

	loc := body.Results[0].Geometry.Location
	return geo.Coordinate{Lat: loc.Lat, Lon: loc.Lng}, nil
}

func (p *HTTPPlanner) Directions(ctx context.Context, origin geo.Coordinate, destination string, mode TravelMode) (Route, error) {
	if mode == "" {
		mode = ModeWalking
	}

	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lon))
	params.Set("destination", destination)
	params.Set("mode", string(mode))
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}

	var body directionsResponse
	if err := p.get(ctx, "/maps/api/directions/json", params, &body); err != nil {
		return Route{}, err
	}
	if body.Status != "OK" || len(body.Routes) == 0 || len(body.Routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("directions to %q: %w", destination, shared.ErrNoRoute)
	}

	leg := body.Routes[0].Legs[0]
	route := Route{
		Destination:    destination,
		DistanceMeters: leg.Distance.Value,
		Duration:       time.Duration(leg.Duration.Value) * time.Second,
	}
	for _, s := range leg.Steps {
		route.Steps = append(route.Steps, RouteStep{
			Instruction:    StripHTML(s.HTMLInstructions),
			Start:          geo.Coordinate{Lat: s.StartLocation.Lat, Lon: s.StartLocation.Lng},
			End:            geo.Coordinate{Lat: s.EndLocation.Lat, Lon: s.EndLocation.Lng},
			DistanceMeters: s.Distance.Value,
			Duration:       time.Duration(s.Duration.Value) * time.Second,
		})
	}
	return route, nil
}

func (p *HTTPPlanner) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build planner request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("planner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("planner returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode planner response: %w", err)
	}
	return nil
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// StripHTML flattens html_instructions into speakable text.
func StripHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.Join(strings.Fields(s), " ")
}
