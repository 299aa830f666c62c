// Package geocode resolves free-text addresses to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultURL is the public ArcGIS World geocoder.
const DefaultURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"

var (
	ErrNotFound = errors.New("no matching address found")
	ErrTimeout  = errors.New("geocoder timed out")
	ErrService  = errors.New("geocoder service error")
)

// Result is a resolved address.
type Result struct {
	Lat     float64 `json:"lat" doc:"Latitude"`
	Lng     float64 `json:"lng" doc:"Longitude"`
	Address string  `json:"address" doc:"Formatted address"`
}

// Geocoder resolves a query. Implementations return errors wrapping
// ErrNotFound, ErrTimeout or ErrService.
type Geocoder interface {
	Search(ctx context.Context, query string) (Result, error)
}

// ArcGIS queries an ArcGIS findAddressCandidates endpoint.
type ArcGIS struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

// NewArcGIS returns a client with the given endpoint and timeout. An empty
// endpoint uses DefaultURL.
func NewArcGIS(endpoint string, timeout time.Duration) *ArcGIS {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ArcGIS{
		URL:       endpoint,
		Timeout:   timeout,
		UserAgent: "property_claim_mapper",
		Client:    &http.Client{},
	}
}

type candidatesResponse struct {
	Candidates []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
		Score float64 `json:"score"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search returns the best candidate for query. Blank queries are not sent.
func (a *ArcGIS) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("SingleLine", query)
	q.Set("f", "json")
	q.Set("outFields", "Match_addr")
	q.Set("maxLocations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Result{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	var body candidatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTimeout(err) {
			return Result{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Result{}, fmt.Errorf("%w: decoding response: %v", ErrService, err)
	}
	if body.Error != nil {
		return Result{}, fmt.Errorf("%w: %d %s", ErrService, body.Error.Code, body.Error.Message)
	}
	if len(body.Candidates) == 0 {
		return Result{}, ErrNotFound
	}
	c := body.Candidates[0]
	return Result{Lat: c.Location.Y, Lng: c.Location.X, Address: c.Address}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Message renders the user-facing status line for a search outcome.
func Message(res Result, err error) string {
	switch {
	case err == nil:
		return "Found: " + res.Address
	case errors.Is(err, ErrNotFound):
		return "No matching address found."
	case errors.Is(err, ErrTimeout):
		return "Search Error: the geocoding service timed out."
	default:
		return "Search Error: the geocoding service is unavailable."
	}
}
