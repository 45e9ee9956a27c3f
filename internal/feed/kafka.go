package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaOptions configures a KafkaFeed.
type KafkaOptions struct {
	Brokers []string
	Topic   string
	GroupID string
	Poll    time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaFeed consumes notifications published on a kafka topic. Each message
// value is a {key, data} notification; the message key, when set, overrides
// an empty notification key.
type KafkaFeed struct {
	reader  messageReader
	handler Handler
	log     *zap.Logger
	poll    time.Duration
	commit  bool // offsets are only committed within a consumer group
}

func NewKafkaFeed(opts KafkaOptions, h Handler, log *zap.Logger) (*KafkaFeed, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("kafka feed: at least one broker is required")
	}
	if strings.TrimSpace(opts.Topic) == "" {
		return nil, errors.New("kafka feed: topic must not be empty")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     opts.Brokers,
		GroupID:     opts.GroupID,
		Topic:       opts.Topic,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	k := newKafkaFeed(reader, opts.Poll, h, log)
	k.commit = opts.GroupID != ""
	return k, nil
}

func newKafkaFeed(r messageReader, poll time.Duration, h Handler, log *zap.Logger) *KafkaFeed {
	if poll <= 0 {
		poll = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaFeed{reader: r, handler: h, log: log, poll: poll}
}

// Run consumes until ctx ends or the reader is closed.
func (k *KafkaFeed) Run(ctx context.Context) error {
	defer k.reader.Close()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fetchCtx, cancel := context.WithTimeout(ctx, k.poll)
		msg, err := k.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, context.Canceled):
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, kafka.ErrGroupClosed):
				return nil
			}
			k.log.Warn("kafka fetch failed", zap.Error(err))
			continue
		}

		var n Notification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			k.log.Warn("decode kafka notification", zap.Error(err), zap.Int64("offset", msg.Offset))
		} else {
			if n.Key == "" {
				n.Key = string(msg.Key)
			}
			k.handler(n)
		}

		if !k.commit {
			continue
		}
		commitCtx, commitCancel := context.WithTimeout(ctx, k.poll)
		if err := k.reader.CommitMessages(commitCtx, msg); err != nil && ctx.Err() == nil {
			k.log.Warn("kafka commit failed", zap.Error(err))
		}
		commitCancel()
	}
}
