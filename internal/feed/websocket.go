package feed

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nhle/planhub/internal/model"
)

// dialTimeout bounds the websocket handshake.
const dialTimeout = 15 * time.Second

// WSFeed is a Feed backed by a websocket connection to the hosted
// store's change-feed endpoint. Events arrive as JSON frames and are
// fanned out to per-kind subscriptions through an internal hub.
type WSFeed struct {
	url     string
	hub     *Hub
	conn    *websocket.Conn
	stopCh  chan struct{}
	mu      gosync.Mutex
	running bool
}

// NewWSFeed creates a websocket feed for the given endpoint URL
// (ws:// or wss://). bufSize is the per-subscription channel capacity.
func NewWSFeed(url string, bufSize int) *WSFeed {
	return &WSFeed{
		url:    url,
		hub:    NewHub(bufSize),
		stopCh: make(chan struct{}),
	}
}

// Connect dials the endpoint and starts the read loop.
func (f *WSFeed) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dialing change feed %s: %w", f.url, err)
	}

	f.conn = conn
	f.running = true
	go f.readLoop(conn)

	return nil
}

// Subscribe registers a subscription for one entity kind. The feed
// must be connected first.
func (f *WSFeed) Subscribe(kind model.Kind) (*Subscription, error) {
	f.mu.Lock()
	running := f.running
	f.mu.Unlock()

	if !running {
		return nil, fmt.Errorf("change feed not connected")
	}
	return f.hub.Subscribe(kind)
}

// Close stops the read loop, closes the connection, and terminates
// all subscriptions.
func (f *WSFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return nil
	}
	f.running = false
	close(f.stopCh)

	err := f.conn.Close()
	f.hub.Close()
	return err
}

// readLoop reads JSON event frames until the connection fails or the
// feed is closed, publishing each frame to the hub.
func (f *WSFeed) readLoop(conn *websocket.Conn) {
	defer f.hub.Close()

	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			// Skip malformed frames; the feed carries only events.
			continue
		}

		f.hub.Publish(ev)
	}
}
