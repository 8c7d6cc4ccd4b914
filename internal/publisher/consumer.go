package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hearthbakery/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrStop ends Run after the current message is committed.
var ErrStop = errors.New("stop consuming")

type CompletionHandler func(ctx context.Context, ev domain.CartCompleted) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const defaultHandlerAttempts = 3

// CompletionConsumer reads cart completion events.
type CompletionConsumer struct {
	reader     messageReader
	logger     *zap.SugaredLogger
	attempts   int           // handler attempts per event, 0 means defaultHandlerAttempts
	retryDelay time.Duration // grows linearly with each attempt
}

func NewCompletionConsumer(topic, groupID string, logger *zap.SugaredLogger, brokers ...string) *CompletionConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CompletionConsumer{
		reader:     reader,
		logger:     logger,
		attempts:   defaultHandlerAttempts,
		retryDelay: 500 * time.Millisecond,
	}
}

// Run hands each CartCompleted event to handle until ctx is done or handle
// returns ErrStop. Events that fail to decode are committed and skipped.
// A failing handler is retried on the same event; once the attempts are
// used up Run returns the error without committing, so the group resumes
// from that event on the next Run.
func (c *CompletionConsumer) Run(ctx context.Context, handle CompletionHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka fetch failed: %w", err)
		}

		ev, ok := c.decode(msg)
		if !ok {
			c.commit(ctx, msg)
			continue
		}

		err = c.handleWithRetry(ctx, handle, ev, msg.Offset)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, ErrStop) {
			return fmt.Errorf("cart completed handler failed at offset %d: %w", msg.Offset, err)
		}
		c.commit(ctx, msg)
		if errors.Is(err, ErrStop) {
			return nil
		}
	}
}

func (c *CompletionConsumer) handleWithRetry(ctx context.Context, handle CompletionHandler, ev domain.CartCompleted, offset int64) error {
	attempts := c.attempts
	if attempts <= 0 {
		attempts = defaultHandlerAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = handle(ctx, ev)
		if err == nil || errors.Is(err, ErrStop) {
			return err
		}
		c.logger.Warnw("cart completed handler failed",
			"err", err,
			"clientCartId", ev.ClientCartID,
			"offset", offset,
			"attempt", attempt,
		)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.retryDelay):
		}
	}
	return err
}

func (c *CompletionConsumer) decode(msg kafka.Message) (domain.CartCompleted, bool) {
	var ev domain.CartCompleted
	for _, h := range msg.Headers {
		if h.Key == "event_type" && string(h.Value) != EventCartCompleted {
			return ev, false
		}
	}
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.logger.Warnw("skipping malformed cart completed event", "err", err, "offset", msg.Offset)
		return ev, false
	}
	if ev.ClientCartID == "" {
		c.logger.Warnw("skipping cart completed event without client cart id", "offset", msg.Offset)
		return ev, false
	}
	return ev, true
}

func (c *CompletionConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warnw("failed to commit offset", "err", err, "offset", msg.Offset)
	}
}

func (c *CompletionConsumer) Close() error {
	return c.reader.Close()
}
