package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
)

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

type DataFetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, bool)
}

// Credentials are the two secrets a chat turn needs.
type Credentials struct {
	GeminiAPIKey       string
	FootballDataAPIKey string
}

func (c Credentials) missing() []string {
	var missing []string
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if c.FootballDataAPIKey == "" {
		missing = append(missing, "FOOTBALL_DATA_API_KEY")
	}
	return missing
}

// Turn records how one chat request was answered.
type Turn struct {
	Intent         Intent
	DataContext    string
	FetchSucceeded bool
	Template       Template
	Text           string
	Model          string
}

// ChatOrchestrator answers a chat message in three sequential steps: classify
// the intent, fetch football data when asked to, then synthesize the answer.
type ChatOrchestrator struct {
	generator     TextGenerator
	fetcher       DataFetcher
	credentials   Credentials
	historyWindow int
}

func NewChatOrchestrator(generator TextGenerator, fetcher DataFetcher, credentials Credentials, historyWindow int) *ChatOrchestrator {
	return &ChatOrchestrator{
		generator:     generator,
		fetcher:       fetcher,
		credentials:   credentials,
		historyWindow: historyWindow,
	}
}

// Ready fails with a *ConfigurationError when a credential is missing.
func (o *ChatOrchestrator) Ready() error {
	if missing := o.credentials.missing(); len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

func (o *ChatOrchestrator) Answer(ctx context.Context, req models.ChatRequest) (*Turn, error) {
	if err := o.Ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, &ValidationError{Message: "message is required"}
	}

	logger := log.WithField("request_id", middleware.GetRequestID(ctx))
	history := lastMessages(req.History, o.historyWindow)

	// Step 1: intent
	classified, err := o.generator.Generate(ctx, BuildIntentPrompt(history, req.Message))
	if err != nil {
		return nil, fmt.Errorf("intent classification: %w", err)
	}
	intent := ParseIntent(classified.Text)

	logger.WithFields(log.Fields{
		"intent":   intent.Kind.String(),
		"endpoint": intent.Path,
		"model":    classified.Model,
		"event":    "intent_classified",
	}).Info("Intent classified")

	// Step 2: data
	dataContext, fetched := o.fetchContext(ctx, logger, intent)

	// Step 3: answer
	tmpl := SelectTemplate(req.UseWebSearch, intent, fetched)
	answer, err := o.generator.Generate(ctx, BuildAnswerPrompt(tmpl, history, req.Message, dataContext))
	if err != nil {
		return nil, fmt.Errorf("answer synthesis: %w", err)
	}

	logger.WithFields(log.Fields{
		"template": tmpl.String(),
		"model":    answer.Model,
		"event":    "answer_generated",
	}).Info("Answer generated")

	return &Turn{
		Intent:         intent,
		DataContext:    dataContext,
		FetchSucceeded: fetched,
		Template:       tmpl,
		Text:           answer.Text,
		Model:          answer.Model,
	}, nil
}

// fetchContext never fails: problems become a degraded context string.
func (o *ChatOrchestrator) fetchContext(ctx context.Context, logger *log.Entry, intent Intent) (string, bool) {
	if intent.Kind == IntentNoData {
		return ContextNoData, false
	}

	if !ValidateEndpoint(intent.Path) {
		logger.WithFields(log.Fields{
			"endpoint": intent.Path,
			"event":    "invalid_endpoint",
		}).Warn("Classifier produced an endpoint outside the whitelist")
		return ContextInvalidEndpoint, false
	}

	payload, ok := o.fetcher.Fetch(ctx, intent.Path)
	if !ok {
		return ContextFetchFailed, false
	}

	compact, err := TruncateMatches(payload, MaxContextMatches)
	if err != nil {
		logger.WithFields(log.Fields{
			"endpoint": intent.Path,
			"error":    err.Error(),
			"event":    "payload_unusable",
		}).Warn("Football payload could not be prepared")
		return ContextFetchFailed, false
	}
	return string(compact), true
}
