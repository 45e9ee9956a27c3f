package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PushFeed reads {key, data} frames from a websocket and reconnects after a
// fixed backoff when the connection drops.
type PushFeed struct {
	url     string
	backoff time.Duration
	dialer  *websocket.Dialer
	handler Handler
	log     *zap.Logger
}

func NewPushFeed(url string, backoff time.Duration, h Handler, log *zap.Logger) *PushFeed {
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PushFeed{
		url:     url,
		backoff: backoff,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handler: h,
		log:     log.With(zap.String("push_url", url)),
	}
}

// Run keeps a connection open until ctx ends.
func (p *PushFeed) Run(ctx context.Context) error {
	for {
		err := p.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.log.Warn("push connection lost", zap.Error(err), zap.Duration("retry_in", p.backoff))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff):
		}
	}
}

func (p *PushFeed) session(ctx context.Context) error {
	ws, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-done:
		}
	}()
	defer ws.Close()

	p.log.Info("push connected")
	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		var n Notification
		if err := json.Unmarshal(message, &n); err != nil {
			p.log.Warn("decode push frame", zap.Error(err))
			continue
		}
		if n.Key == "" {
			p.log.Warn("push frame without key")
			continue
		}
		p.handler(n)
	}
}
