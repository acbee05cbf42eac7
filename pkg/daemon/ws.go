package daemon

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/events"
)

const (
	wsWriteWait     = 10 * time.Second
	wsClientBacklog = 16
)

// wsFrame is the envelope for every websocket message.
type wsFrame struct {
	Type string          `json:"type"`
	Ts   string          `json:"ts"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsFeed fans daemon events out to websocket clients. Slow clients are
// dropped rather than allowed to stall the feed.
type wsFeed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

func newWSFeed(hub *events.EventHub) *wsFeed {
	f := &wsFeed{
		upgrader: websocket.Upgrader{
			// The daemon is reachable on the LAN only; skip origin checks.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
	go f.forward(hub.Subscribe())
	return f
}

// forward bridges the event hub onto every connected client. It exits
// when the hub closes the subscription.
func (f *wsFeed) forward(sub chan events.Event) {
	for ev := range sub {
		frame, err := marshalFrame(ev.Name, ev.Data)
		if err != nil {
			logrus.WithError(err).Warn("failed to marshal event frame")
			continue
		}
		f.broadcast(frame)
	}
}

func (f *wsFeed) broadcast(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn, ch := range f.clients {
		select {
		case ch <- frame:
		default:
			logrus.Warnf("dropping slow websocket client %s", conn.RemoteAddr())
			delete(f.clients, conn)
			close(ch)
		}
	}
}

func (f *wsFeed) add(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, wsClientBacklog)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch
	}
	f.clients[conn] = ch
	return ch
}

func (f *wsFeed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		close(ch)
	}
}

func (f *wsFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for conn, ch := range f.clients {
		delete(f.clients, conn)
		close(ch)
		_ = conn.Close()
	}
}

// handleEvents upgrades GET /ws and streams daemon events to the client.
// The first frame is a state_init snapshot of the current brightness.
func handleEvents(c *gin.Context) {
	conn, err := feed.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade failed")
		return
	}

	logrus.Debugf("websocket client connected: %s", conn.RemoteAddr())

	if frame, err := stateInitFrame(); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			_ = conn.Close()
			return
		}
	}

	ch := feed.add(conn)
	go wsWritePump(conn, ch)
	go wsReadPump(conn)
}

func wsWritePump(conn *websocket.Conn, ch chan []byte) {
	for frame := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			logrus.Debugf("websocket write to %s failed: %v", conn.RemoteAddr(), err)
			break
		}
	}
	feed.remove(conn)
	_ = conn.Close()
}

// wsReadPump discards inbound messages; its job is to notice disconnects.
func wsReadPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	feed.remove(conn)
	_ = conn.Close()
}

func stateInitFrame() ([]byte, error) {
	current, err := controller.Current()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(events.BrightnessChangedEvent{
		Percent: current,
		Ts:      time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	return marshalFrame("state_init", data)
}

func marshalFrame(name string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(wsFrame{
		Type: name,
		Ts:   time.Now().Format(time.RFC3339),
		Data: data,
	})
}
