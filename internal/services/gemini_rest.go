package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// maxErrorBody caps how much of an upstream error body ends up in failure logs.
const maxErrorBody = 512

type generateContentRequest struct {
	Contents []generateContentItem `json:"contents"`
}

type generateContentItem struct {
	Parts []generateContentPart `json:"parts"`
}

type generateContentPart struct {
	Text string `json:"text"`
}

// RESTSurface calls {baseURL}/models/{model}:generateContent?key={apiKey}.
type RESTSurface struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRESTSurface(baseURL, apiKey string, timeout time.Duration) *RESTSurface {
	return &RESTSurface{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name is the last path segment of the base URL, e.g. "v1beta".
func (s *RESTSurface) Name() string {
	if u, err := url.Parse(s.baseURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return s.baseURL
}

func (s *RESTSurface) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateContentRequest{
		Contents: []generateContentItem{{Parts: []generateContentPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		s.baseURL, url.PathEscape(model), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", redactKey(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return "", &GeminiHTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	return parseGenerateContent(data)
}

func parseGenerateContent(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", ErrInvalidResponse
	}
	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text")
	if text.Type != gjson.String {
		return "", ErrInvalidResponse
	}
	return text.String(), nil
}

// redactKey masks the key query parameter in a *url.Error, which quotes the
// full request URL. The error itself is returned so its cause stays wrapped.
func redactKey(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, perr := url.Parse(urlErr.URL)
	if perr != nil {
		urlErr.URL = "(unparseable URL)"
		return err
	}
	if q := u.Query(); q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
		urlErr.URL = u.String()
	}
	return err
}
