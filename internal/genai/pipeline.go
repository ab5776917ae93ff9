package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aio-labs/aio-bot/internal/models"
	"github.com/aio-labs/aio-bot/internal/observability"
)

// Completer is the single-call completion contract Pipeline drives.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// CallError is the classified failure of an exhausted or terminal pipeline
// call. The retry loop lives outside the call itself; CallError carries
// everything the caller needs to phrase a user-facing message.
type CallError struct {
	Class            ErrorClass
	RetriesExhausted bool
	Err              error
}

func (e *CallError) Error() string {
	if e.RetriesExhausted {
		return fmt.Sprintf("completion failed after retries (%s): %v", e.Class, e.Err)
	}
	return fmt.Sprintf("completion failed (%s): %v", e.Class, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Pipeline is the bounded-concurrency request path to the completion
// backend. A single process-wide semaphore bounds in-flight calls; each user
// call carries a bounded history and is retried only on retryable classes.
type Pipeline struct {
	client      Completer
	sem         chan struct{}
	attempts    int
	backoffBase time.Duration
	backoffCap  time.Duration
	maxPairs    int
	metrics     *observability.Metrics
	sleep       func(ctx context.Context, d time.Duration) error
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMaxInFlight bounds concurrent backend calls. Defaults to 1, which
// fully serializes calls across users.
func WithMaxInFlight(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.sem = make(chan struct{}, n)
		}
	}
}

// WithAttempts sets the total attempt count for retryable failures.
func WithAttempts(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// WithHistoryPairs bounds the chat history to the most recent n
// user/assistant pairs.
func WithHistoryPairs(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxPairs = n
		}
	}
}

// WithMetrics attaches observability instruments.
func WithMetrics(m *observability.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// withSleep replaces the backoff sleep, for tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) PipelineOption {
	return func(p *Pipeline) { p.sleep = fn }
}

// NewPipeline creates a completion pipeline over the given client.
func NewPipeline(client Completer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		client:      client,
		sem:         make(chan struct{}, 1),
		attempts:    3,
		backoffBase: time.Second,
		backoffCap:  30 * time.Second,
		maxPairs:    12,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TrimHistory drops the oldest user/assistant pairs until at most maxPairs
// remain, preserving role pairing.
func (p *Pipeline) TrimHistory(history []models.ChatMessage) []models.ChatMessage {
	for len(history) > p.maxPairs*2 {
		history = history[2:]
	}
	return history
}

// Ask sends the trimmed history plus the new user turn to the backend.
// On success it returns the assistant reply and the updated history (old
// turns trimmed, new user/assistant pair appended). On failure it returns a
// *CallError and a nil history: a failed attempt never pollutes the stored
// conversation.
func (p *Pipeline) Ask(ctx context.Context, history []models.ChatMessage, userInput string) (string, []models.ChatMessage, error) {
	trimmed := p.TrimHistory(history)
	messages := make([]models.ChatMessage, len(trimmed), len(trimmed)+2)
	copy(messages, trimmed)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: userInput})

	var lastErr error
	for attempt := 0; attempt < p.attempts; attempt++ {
		reply, err := p.call(ctx, messages)
		if err == nil {
			p.metrics.ObserveCompletion("success")
			updated := append(messages, models.ChatMessage{Role: models.RoleAssistant, Content: reply})
			return reply, updated, nil
		}
		lastErr = err

		class := Classify(err)
		p.metrics.ObserveCompletion(string(class))
		if !class.Retryable() {
			slog.Warn("Pipeline.Ask: terminal completion failure", "class", class, "error", err)
			return "", nil, &CallError{Class: class, Err: err}
		}

		slog.Warn("Pipeline.Ask: retryable completion failure", "class", class, "attempt", attempt+1, "attempts", p.attempts, "error", err)
		if attempt == p.attempts-1 {
			break
		}
		p.metrics.ObserveCompletionRetry()
		if err := p.sleep(ctx, Backoff(attempt, p.backoffBase, p.backoffCap)); err != nil {
			return "", nil, &CallError{Class: ClassTimeout, Err: err}
		}
	}

	return "", nil, &CallError{Class: Classify(lastErr), RetriesExhausted: true, Err: lastErr}
}

// call performs one backend attempt under the concurrency limiter.
func (p *Pipeline) call(ctx context.Context, messages []models.ChatMessage) (string, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()
	return p.client.Complete(ctx, messages)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
