package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MaxContextMatches bounds the matches list handed to the model.
const MaxContextMatches = 20

// maxPayloadBytes guards against unexpectedly large upstream bodies.
const maxPayloadBytes = 8 << 20

// PayloadCache stores raw upstream payloads by endpoint path.
type PayloadCache interface {
	Get(ctx context.Context, path string) ([]byte, bool)
	Set(ctx context.Context, path string, payload []byte)
}

// FootballDataService is a thin authenticated client for football-data.org v4.
type FootballDataService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      PayloadCache
}

func NewFootballDataService(baseURL, apiKey string, timeout time.Duration, cache PayloadCache) *FootballDataService {
	return &FootballDataService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
	}
}

// Fetch returns the JSON payload at path, or false on any failure. Failures
// are logged here; callers treat a miss as a normal branch.
func (s *FootballDataService) Fetch(ctx context.Context, path string) ([]byte, bool) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, path); ok {
			log.WithFields(log.Fields{"endpoint": path, "event": "football_cache_hit"}).Debug("Serving football data from cache")
			return payload, true
		}
	}

	payload, err := s.get(ctx, path)
	if err != nil {
		log.WithFields(log.Fields{
			"endpoint": path,
			"error":    err.Error(),
			"event":    "football_fetch_failed",
		}).Warn("Football API request failed")
		return nil, false
	}

	if s.cache != nil {
		s.cache.Set(ctx, path, payload)
	}
	return payload, true
}

func (s *FootballDataService) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v4"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Auth-Token", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("football API error: %s", resp.Status)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("football API returned invalid JSON")
	}
	return payload, nil
}

// TruncateMatches keeps the first limit entries of a top-level "matches" array,
// in order, and returns the payload compacted. Payloads without such an array
// are only compacted.
func TruncateMatches(payload []byte, limit int) ([]byte, error) {
	matches := gjson.GetBytes(payload, "matches")
	if matches.IsArray() {
		items := matches.Array()
		if len(items) > limit {
			raws := make([]string, limit)
			for i := range raws {
				raws[i] = items[i].Raw
			}
			truncated, err := sjson.SetRawBytes(payload, "matches", []byte("["+strings.Join(raws, ",")+"]"))
			if err != nil {
				return nil, fmt.Errorf("failed to truncate matches: %w", err)
			}
			payload = truncated
		}
	}
	return []byte(gjson.GetBytes(payload, "@ugly").Raw), nil
}
