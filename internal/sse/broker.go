// Package sse implements a Server-Sent Events broker that tells every open
// view when to re-render.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// LayoutData is the payload of layout.* and sidebar.updated events.
type LayoutData struct {
	ItemID string `json:"itemId,omitempty"`
	Count  int    `json:"count"`
}

// EventSidebar is sent, throttled, after layout changes so library views
// refresh their add buttons.
const EventSidebar = "sidebar.updated"

// subscriber is one open stream. An empty topics list receives everything;
// otherwise an event is delivered when its type starts with a topic.
type subscriber struct {
	ch     chan []byte
	topics []string
}

func (s *subscriber) wants(eventType string) bool {
	if len(s.topics) == 0 {
		return true
	}
	for _, t := range s.topics {
		if strings.HasPrefix(eventType, t) {
			return true
		}
	}
	return false
}

// Broker manages SSE streams and broadcasts events.
//
// One loop goroutine owns the subscriber set, the event sequence and the
// sidebar throttle. Public methods talk to it over channels.
type Broker struct {
	sidebarMin time.Duration
	keepAlive  time.Duration

	subscribeCh   chan *subscriber
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	layoutCh      chan LayoutEvent
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// LayoutEvent is a committed layout mutation.
type LayoutEvent struct {
	Kind   string
	ItemID string
	Count  int
}

// NewBroker creates a broker that sends sidebar.updated at most once per
// sidebarThrottle. A change inside the window is not lost: one trailing
// sidebar.updated carries the latest count when the window closes.
func NewBroker(sidebarThrottle time.Duration) *Broker {
	if sidebarThrottle <= 0 {
		sidebarThrottle = time.Second
	}

	b := &Broker{
		sidebarMin:    sidebarThrottle,
		keepAlive:     25 * time.Second,
		subscribeCh:   make(chan *subscriber),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		layoutCh:      make(chan LayoutEvent, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	subs := make(map[chan []byte]*subscriber)
	var (
		seq         uint64
		lastSidebar time.Time
		pending     *LayoutData
		trailing    = time.NewTimer(time.Hour)
	)
	trailing.Stop()
	defer trailing.Stop()

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))
		for ch, s := range subs {
			if !s.wants(event.Type) {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	sidebar := func(now time.Time, data LayoutData) {
		lastSidebar = now
		pending = nil
		broadcast(Event{Type: EventSidebar, Data: data})
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range subs {
				close(ch)
			}
			return

		case s := <-b.subscribeCh:
			subs[s.ch] = s

		case ch := <-b.unsubscribeCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case ev := <-b.layoutCh:
			broadcast(Event{Type: "layout." + ev.Kind, Data: LayoutData{ItemID: ev.ItemID, Count: ev.Count}})

			now := time.Now()
			wait := b.sidebarMin - now.Sub(lastSidebar)
			if wait <= 0 {
				sidebar(now, LayoutData{Count: ev.Count})
				continue
			}
			if pending == nil {
				trailing.Reset(wait)
			}
			pending = &LayoutData{Count: ev.Count}

		case now := <-trailing.C:
			if pending != nil {
				sidebar(now, *pending)
			}

		case resp := <-b.countReqCh:
			resp <- len(subs)
		}
	}
}

// Close stops the loop and closes every subscriber channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a stream and returns its channel. With topics, only events
// whose type starts with one of them are delivered.
func (b *Broker) Subscribe(topics ...string) chan []byte {
	s := &subscriber{ch: make(chan []byte, 64), topics: topics}
	if b.closed.Load() {
		close(s.ch)
		return s.ch
	}

	select {
	case b.subscribeCh <- s:
	case <-b.stopped:
		close(s.ch)
	}
	return s.ch
}

// Unsubscribe removes a stream and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of open streams.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to every interested stream.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishLayoutEvent broadcasts layout.<kind> followed by a throttled
// sidebar.updated.
func (b *Broker) PublishLayoutEvent(kind, itemID string, count int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.layoutCh <- LayoutEvent{Kind: kind, ItemID: itemID, Count: count}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint (GET /api/events). Repeated ?topic= values
// narrow the stream, e.g. ?topic=layout.&topic=notice.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query()["topic"]...)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
