// Package geocode resolves street addresses to coordinates for the
// collector map and computes job distances. Lookup failures surface as
// errors the caller can show as "location unavailable"; they never block a
// request from moving through its lifecycle.
package geocode

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ErrNotFound means the geocoder returned no match for the address.
var ErrNotFound = errors.New("address not found")

// Config holds geocoding service configuration.
type Config struct {
	APIKey string
}

// Result is a resolved coordinate pair.
type Result struct {
	Latitude  float64
	Longitude float64
}

// Service queries a MapTiler-style geocoding API and caches results by
// address; addresses repeat constantly across requests from the same
// household so the cache hit rate is high.
type Service struct {
	cfg     Config
	client  *http.Client
	baseURL string

	mu    sync.RWMutex
	cache map[string]Result
}

func NewService(cfg Config) *Service {
	return &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.maptiler.com/geocoding",
		cache:   make(map[string]Result),
	}
}

// Enabled reports whether an API key is configured.
func (s *Service) Enabled() bool {
	return s.cfg.APIKey != ""
}

type apiResponse struct {
	Features []struct {
		Center []float64 `json:"center"` // [lng, lat]
	} `json:"features"`
}

// Geocode resolves an address to coordinates.
func (s *Service) Geocode(address string) (Result, error) {
	if !s.Enabled() {
		return Result{}, errors.New("geocoding not configured")
	}

	s.mu.RLock()
	cached, ok := s.cache[address]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s/%s.json?key=%s&limit=1", s.baseURL, url.PathEscape(address), s.cfg.APIKey)
	resp, err := s.client.Get(reqURL)
	if err != nil {
		return Result{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geocoder returned %d", resp.StatusCode)
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return Result{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(api.Features) == 0 || len(api.Features[0].Center) < 2 {
		return Result{}, ErrNotFound
	}

	result := Result{
		Longitude: api.Features[0].Center[0],
		Latitude:  api.Features[0].Center[1],
	}

	s.mu.Lock()
	s.cache[address] = result
	s.mu.Unlock()

	return result, nil
}
