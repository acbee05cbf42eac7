package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/events"
)

const wsReconnectDelay = 3 * time.Second

// SubscribeEvents streams daemon events over the websocket feed. The
// returned channel closes when ctx is cancelled. If the daemon goes away
// the subscription reconnects with a fixed delay.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan events.Event {
	out := make(chan events.Event, 16)

	wsURL := strings.Replace(c.BaseURL(), "http", "ws", 1) + "/ws"

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := streamEvents(ctx, wsURL, out); err != nil {
				logrus.WithError(err).Debug("event stream interrupted")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wsReconnectDelay):
			}
		}
	}()

	return out
}

func streamEvents(ctx context.Context, wsURL string, out chan<- events.Event) error {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the blocking read when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var frame struct {
			Type string          `json:"type"`
			Ts   string          `json:"ts"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return err
		}
		select {
		case out <- events.Event{Name: frame.Type, Data: frame.Data}:
		default:
			// Receiver is not keeping up; drop the event.
		}
	}
}
