// Package sse streams knowledge base changes to HTTP clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event types.
const (
	TypeDocumentUpdated = "document.updated"
	TypeStatsUpdated    = "stats.updated"
)

const (
	defaultStatsThrottle = 2 * time.Second
	defaultHeartbeat     = 30 * time.Second
	clientBuffer         = 64
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DocumentChange is the payload of a document.updated event.
type DocumentChange struct {
	File     string `json:"file"`
	Checksum string `json:"checksum"`
}

// StatsFunc produces the payload of a stats.updated event.
type StatsFunc func() any

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithStats sets the source of stats.updated payloads. Without it the
// event carries an empty object and clients refetch /api/stats.
func WithStats(fn StatsFunc) BrokerOption {
	return func(b *Broker) { b.stats = fn }
}

// WithHeartbeat sets the interval of keep-alive comments.
func WithHeartbeat(d time.Duration) BrokerOption {
	return func(b *Broker) {
		if d > 0 {
			b.heartbeat = d
		}
	}
}

// WithLogger sets the logger for dropped and unencodable events.
func WithLogger(l *slog.Logger) BrokerOption {
	return func(b *Broker) { b.logger = l }
}

// Broker fans events out to subscribed clients. Slow clients miss events
// rather than block publishers.
type Broker struct {
	statsEvery time.Duration
	heartbeat  time.Duration
	stats      StatsFunc
	logger     *slog.Logger

	mu        sync.Mutex
	clients   map[chan []byte]struct{}
	lastStats time.Time
	done      bool
}

// NewBroker creates a broker that emits at most one stats.updated event
// per statsThrottle.
func NewBroker(statsThrottle time.Duration, opts ...BrokerOption) *Broker {
	if statsThrottle <= 0 {
		statsThrottle = defaultStatsThrottle
	}
	b := &Broker{
		statsEvery: statsThrottle,
		heartbeat:  defaultHeartbeat,
		clients:    make(map[chan []byte]struct{}),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a client. The channel is closed by Unsubscribe or
// Close; after Close it is returned already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		close(ch)
		return ch
	}
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe drops a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; !ok {
		return
	}
	delete(b.clients, ch)
	close(ch)
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	frame, ok := b.frame(event)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fanOut(event.Type, frame)
}

// PublishDocumentChange announces a new version of a document file,
// followed by a throttled stats.updated event.
func (b *Broker) PublishDocumentChange(file, checksum string) {
	doc, ok := b.frame(Event{Type: TypeDocumentUpdated, Data: DocumentChange{File: file, Checksum: checksum}})
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.fanOut(TypeDocumentUpdated, doc)

	now := time.Now()
	if now.Sub(b.lastStats) < b.statsEvery {
		return
	}
	b.lastStats = now

	var payload any = struct{}{}
	if b.stats != nil {
		payload = b.stats()
	}
	if stats, ok := b.frame(Event{Type: TypeStatsUpdated, Data: payload}); ok {
		b.fanOut(TypeStatsUpdated, stats)
	}
}

// Close disconnects every client. Later publishes are ignored.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.done = true
	for ch := range b.clients {
		delete(b.clients, ch)
		close(ch)
	}
}

// frame renders an event in the text/event-stream wire format.
func (b *Broker) frame(event Event) ([]byte, bool) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		b.logger.Warn("sse: encode event", slog.String("type", event.Type), slog.String("error", err.Error()))
		return nil, false
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", event.Type, data), true
}

// fanOut must be called with mu held.
func (b *Broker) fanOut(kind string, frame []byte) {
	dropped := 0
	for ch := range b.clients {
		select {
		case ch <- frame:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.logger.Debug("sse: slow clients skipped", slog.String("type", kind), slog.Int("clients", dropped))
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := b.Subscribe()
	defer b.Unsubscribe(events)

	keepAlive := time.NewTicker(b.heartbeat)
	defer keepAlive.Stop()

	send := func(p []byte) {
		_, _ = w.Write(p)
		flusher.Flush()
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			send([]byte(": ping\n\n"))
		case frame, open := <-events:
			if !open {
				return
			}
			send(frame)
		}
	}
}
