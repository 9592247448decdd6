package order

import (
	"time"

	"github.com/superalgorithm/superalgorithm/internal/types"
)

type EventKind string

const (
	// EventStatus reports an order status change.
	EventStatus EventKind = "status"
	// EventFill reports a fill applied to an order.
	EventFill EventKind = "fill"
	// EventAnomaly reports a venue event that was recorded but not applied.
	EventAnomaly EventKind = "anomaly"
)

// Notification is one entry of the manager's event log. Order is a snapshot
// taken right after the event was applied; it is empty for anomalies about
// unknown orders.
type Notification struct {
	Seq       uint64         `json:"seq"`
	Kind      EventKind      `json:"kind"`
	Order     types.Order    `json:"order"`
	Fill      *types.Fill    `json:"fill,omitempty"`
	Anomaly   *types.Anomaly `json:"anomaly,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type subscriber struct {
	id uint64
	ch chan Notification
}

// snapshot returns a copy of o that shares no memory with it.
func snapshot(o *types.Order) types.Order {
	out := *o
	out.Fills = append([]types.Fill(nil), o.Fills...)

	return out
}

// record appends a notification to the log and delivers it to subscribers,
// unless delivery for the order is deferred until its placement returns.
// The caller holds m.mu.
func (m *Manager) record(kind EventKind, e *entry, fill *types.Fill, anomaly *types.Anomaly) {
	m.seq++

	n := Notification{
		Seq:       m.seq,
		Kind:      kind,
		Fill:      fill,
		Anomaly:   anomaly,
		Timestamp: m.now(),
	}

	if e != nil {
		n.Order = snapshot(&e.order)
	}

	m.log = append(m.log, n)

	if e != nil && e.placing {
		e.deferred = append(e.deferred, n)

		return
	}

	m.deliver(n)
}

// deliver sends n to every subscriber without blocking. A subscriber whose
// buffer is full misses n; the event log still holds it. The caller holds m.mu.
func (m *Manager) deliver(n Notification) {
	for _, s := range m.subscribers {
		select {
		case s.ch <- n:
		default:
			m.anomalies = append(m.anomalies, types.Anomaly{
				ClientOrderID: n.Order.ClientOrderID,
				Kind:          types.AnomalySubscriberLag,
				Detail:        "subscriber buffer full, notification available through Events",
				Timestamp:     n.Timestamp,
			})
		}
	}
}

// flush delivers the notifications held back while e was being placed.
// The caller holds m.mu.
func (m *Manager) flush(e *entry) {
	e.placing = false

	deferred := e.deferred
	e.deferred = nil

	for _, n := range deferred {
		m.deliver(n)
	}
}

// Subscribe registers a receiver of notifications with the given buffer.
// Notifications that do not fit are skipped for this subscriber; Events
// returns the complete log. The returned function unsubscribes and closes
// the channel.
func (m *Manager) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer < 1 {
		buffer = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscriberSeq++
	s := subscriber{id: m.subscriberSeq, ch: make(chan Notification, buffer)}
	m.subscribers = append(m.subscribers, s)

	var once bool

	return s.ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if once {
			return
		}

		once = true

		for i, other := range m.subscribers {
			if other.id == s.id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)

				break
			}
		}

		close(s.ch)
	}
}

// Events returns every notification with a sequence number above afterSeq.
func (m *Manager) Events(afterSeq uint64) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	if afterSeq >= m.seq {
		return nil
	}

	// Sequence numbers start at 1 and are contiguous.
	return append([]Notification(nil), m.log[afterSeq:]...)
}
