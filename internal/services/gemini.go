package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Surface is one API surface able to run generateContent for a named model.
type Surface interface {
	Name() string
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// Generation is the text produced by the first model that answered.
type Generation struct {
	Text  string
	Model string
}

// GeminiService walks an ordered model list. Each model is tried on the primary
// surface and, only when the primary reports the model as not found, once more
// on the secondary surface before moving on.
type GeminiService struct {
	models    []string
	primary   Surface
	secondary Surface
}

func NewGeminiService(models []string, primary, secondary Surface) *GeminiService {
	return &GeminiService{
		models:    append([]string(nil), models...),
		primary:   primary,
		secondary: secondary,
	}
}

// Models returns the fallback order.
func (s *GeminiService) Models() []string {
	return append([]string(nil), s.models...)
}

func (s *GeminiService) Close() {
	for _, surface := range []Surface{s.primary, s.secondary} {
		if c, ok := surface.(io.Closer); ok {
			c.Close()
		}
	}
}

func (s *GeminiService) Generate(ctx context.Context, prompt string) (Generation, error) {
	var failures []string

	for _, model := range s.models {
		if err := ctx.Err(); err != nil {
			return Generation{}, err
		}

		text, err := s.primary.GenerateContent(ctx, model, prompt)
		if err != nil {
			failures = append(failures, attemptFailure(s.primary, model, err))
			if !errors.Is(err, ErrModelNotFound) || s.secondary == nil {
				continue
			}

			text, err = s.secondary.GenerateContent(ctx, model, prompt)
			if err != nil {
				failures = append(failures, attemptFailure(s.secondary, model, err))
				continue
			}
		}

		log.WithFields(log.Fields{
			"model":    model,
			"attempts": len(failures) + 1,
			"event":    "gemini_success",
		}).Debug("Gemini model answered")

		return Generation{Text: text, Model: model}, nil
	}

	log.WithFields(log.Fields{
		"failures": failures,
		"event":    "gemini_exhausted",
	}).Error("All Gemini models failed")

	return Generation{}, &UpstreamUnavailableError{Failures: failures}
}

func attemptFailure(surface Surface, model string, err error) string {
	return fmt.Sprintf("%s (%s): %v", model, surface.Name(), err)
}

// SDKSurface serves generateContent through the official Go client.
type SDKSurface struct {
	client *genai.Client
}

func NewSDKSurface(ctx context.Context, apiKey string, opts ...option.ClientOption) (*SDKSurface, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &SDKSurface{client: client}, nil
}

func (s *SDKSurface) Name() string { return "sdk" }

func (s *SDKSurface) Close() error {
	return s.client.Close()
}

func (s *SDKSurface) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	resp, err := s.client.GenerativeModel(model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifySDKError(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", ErrInvalidResponse
	}
	return text, nil
}

// classifySDKError lets a 404 from the client match ErrModelNotFound.
func classifySDKError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &GeminiHTTPError{StatusCode: gerr.Code, Body: gerr.Message}
	}
	return err
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
