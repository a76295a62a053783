package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

type chatOrchestrator interface {
	Ready() error
	Answer(ctx context.Context, req models.ChatRequest) (*services.Turn, error)
}

// NATSTransport answers chat requests published on a request-reply subject.
// Instances sharing a queue group split the load; each message runs on its own
// goroutine so a slow turn does not hold up the next request.
type NATSTransport struct {
	conn         *nats.Conn
	subject      string
	queue        string
	timeout      time.Duration
	orchestrator chatOrchestrator
	sub          *nats.Subscription
	inflight     sync.WaitGroup
}

func NewNATSTransport(url, name, subject, queue string, timeout time.Duration, orchestrator chatOrchestrator) (*NATSTransport, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSTransport{
		conn:         conn,
		subject:      subject,
		queue:        queue,
		timeout:      timeout,
		orchestrator: orchestrator,
	}, nil
}

func (nt *NATSTransport) Start() error {
	sub, err := nt.conn.QueueSubscribe(nt.subject, nt.queue, nt.dispatch)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.subject, err)
	}
	nt.sub = sub

	log.WithFields(log.Fields{"subject": nt.subject, "queue": nt.queue, "event": "nats_subscribed"}).Info("Listening for chat requests")
	return nil
}

func (nt *NATSTransport) dispatch(msg *nats.Msg) {
	nt.inflight.Add(1)
	go func() {
		defer nt.inflight.Done()
		nt.handleChatRequest(msg)
	}()
}

func (nt *NATSTransport) handleChatRequest(msg *nats.Msg) {
	requestID := msg.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = middleware.NewRequestID()
	}

	ctx, cancel := context.WithTimeout(middleware.WithRequestID(context.Background(), requestID), nt.timeout)
	defer cancel()

	data, err := json.Marshal(answer(ctx, nt.orchestrator, msg.Data))
	if err != nil {
		log.WithField("request_id", requestID).Errorf("Failed to marshal NATS reply: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"event":      "nats_reply_failed",
		}).Error("Failed to send NATS reply")
	}
}

// answer runs one chat turn for a raw request payload, mirroring the HTTP status mapping.
func answer(ctx context.Context, orchestrator chatOrchestrator, data []byte) models.ChatReply {
	if err := orchestrator.Ready(); err != nil {
		return errorReply(err)
	}

	req, err := handlers.DecodeChatRequest(bytes.NewReader(data))
	if err != nil {
		return errorReply(err)
	}

	turn, err := orchestrator.Answer(ctx, req)
	if err != nil {
		return errorReply(err)
	}

	return models.ChatReply{
		ChatResponse: models.ChatResponse{Response: turn.Text, Model: turn.Model},
		Status:       http.StatusOK,
	}
}

func errorReply(err error) models.ChatReply {
	status, msg := handlers.ClassifyError(err)
	log.WithFields(log.Fields{
		"status": status,
		"error":  err.Error(),
		"event":  "nats_chat_failed",
	}).Warn("NATS chat request failed")
	return models.ChatReply{ChatResponse: models.ChatResponse{Response: msg}, Status: status}
}

// Close stops taking requests, waits for in-flight turns to reply, then
// closes the connection.
func (nt *NATSTransport) Close() error {
	if nt.sub != nil {
		nt.sub.Unsubscribe()
	}
	nt.inflight.Wait()
	if nt.conn != nil {
		nt.conn.Close()
		log.Info("NATS connection closed")
	}
	return nil
}
