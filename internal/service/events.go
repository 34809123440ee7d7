package service

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// EventType names a scan progress event
type EventType string

const (
	EventSubnetStarted  EventType = "subnet-started"
	EventSubnetProbed   EventType = "subnet-probed"
	EventHostClassified EventType = "host-classified"
	EventSubnetComplete EventType = "subnet-complete"
	EventSubnetFailed   EventType = "subnet-failed"
)

// Event is one progress notification. Payload is a SubnetEvent for the
// subnet-* types and a HostEvent for host-classified.
type Event struct {
	Type    EventType   `json:"type"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload,omitempty"`
}

// SubnetEvent is the payload of the subnet-* events
type SubnetEvent struct {
	Subnet     string `json:"subnet"`
	Discovered int    `json:"discovered,omitempty"`
	Reported   int    `json:"reported,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HostEvent is the payload of host-classified
type HostEvent struct {
	Subnet   string `json:"subnet"`
	IP       string `json:"ip"`
	Vendor   string `json:"vendor"`
	Decision string `json:"decision"`
	Type     string `json:"type,omitempty"`
}

type subscriber struct {
	ch    chan<- Event
	types []EventType // empty means every type
}

func (s subscriber) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// EventBus fans scan events out to subscriber channels. Delivery never
// blocks the scan: an event a subscriber has no room for is dropped.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	dropped     atomic.Int64
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers ch for the given event types, or for all of them
// when none are given.
func (eb *EventBus) Subscribe(ch chan<- Event, types ...EventType) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, subscriber{ch: ch, types: types})
}

// Publish stamps event and delivers it. A nil bus discards events.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, sub := range eb.subscribers {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// channel was full.
func (eb *EventBus) Dropped() int64 {
	if eb == nil {
		return 0
	}
	return eb.dropped.Load()
}
