package tracing

import (
	"sync"

	"github.com/sarchlab/actornet/datarecording"
	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/id"
	"github.com/sarchlab/actornet/sim/world"
)

// Names of the tables a DBTracer writes.
const (
	SessionTable  = "session"
	DeliveryTable = "delivery"
	FailureTable  = "failure"
	TickTable     = "tick"
)

// SessionEntry identifies one traced run.
type SessionEntry struct {
	Session string
	World   string
}

// DeliveryEntry is one message, delivered or dropped. Receiver is only
// meaningful when Reason is empty.
type DeliveryEntry struct {
	Session  string
	Tick     uint64
	Sender   uint64
	Receiver uint64
	Edge     uint64
	Port     uint8
	Kind     string
	Path     string
	Reason   string
}

// FailureEntry is one failed run.
type FailureEntry struct {
	Session string
	Tick    uint64
	Actor   uint64
	Error   string
}

// TickEntry summarizes one tick.
type TickEntry struct {
	Session   string
	Tick      uint64
	Delivered uint64
	Dropped   uint64
	Failed    uint64
}

// DBTracer stores the events of a world into a DataRecorder. Every run gets
// a fresh session id so that several runs can share one database.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder
	session string

	delivered, dropped, failed uint64
}

// NewDBTracer creates the tables and records the session of a world.
func NewDBTracer(
	domain NamedHookable,
	backend datarecording.DataRecorder,
) *DBTracer {
	t := &DBTracer{
		backend: backend,
		session: id.Generate(),
	}

	backend.CreateTable(SessionTable, SessionEntry{})
	backend.CreateTable(DeliveryTable, DeliveryEntry{})
	backend.CreateTable(FailureTable, FailureEntry{})
	backend.CreateTable(TickTable, TickEntry{})

	backend.InsertData(SessionTable, SessionEntry{
		Session: t.session,
		World:   domain.Name(),
	})

	return t
}

// Session returns the session id of the rows this tracer writes.
func (t *DBTracer) Session() string {
	return t.session
}

// StartTick resets the per tick counts.
func (t *DBTracer) StartTick(uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.delivered, t.dropped, t.failed = 0, 0, 0
}

// Deliver records a delivered message.
func (t *DBTracer) Deliver(d world.Delivery) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.delivered++
	t.backend.InsertData(DeliveryTable, t.deliveryEntry(d))
}

// Drop records a dropped message.
func (t *DBTracer) Drop(d world.Delivery) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropped++
	t.backend.InsertData(DeliveryTable, t.deliveryEntry(d))
}

// Fail records a failed run.
func (t *DBTracer) Fail(tick uint64, failure sim.ActorFailure) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failed++
	t.backend.InsertData(FailureTable, FailureEntry{
		Session: t.session,
		Tick:    tick,
		Actor:   uint64(failure.Actor),
		Error:   failure.Err.Error(),
	})
}

// EndTick records the summary of the tick.
func (t *DBTracer) EndTick(tick uint64, _ error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.InsertData(TickTable, TickEntry{
		Session:   t.session,
		Tick:      tick,
		Delivered: t.delivered,
		Dropped:   t.dropped,
		Failed:    t.failed,
	})
}

// Terminate flushes the recorded rows.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}

func (t *DBTracer) deliveryEntry(d world.Delivery) DeliveryEntry {
	entry := DeliveryEntry{
		Session:  t.session,
		Tick:     d.Tick,
		Sender:   uint64(d.From),
		Receiver: uint64(d.To),
		Edge:     uint64(d.Msg.Edge),
		Port:     uint8(d.Msg.Port),
		Kind:     string(d.Msg.Payload().Kind()),
		Reason:   string(d.Reason),
	}

	if pv, ok := d.Msg.Data.(sim.PathVector); ok {
		entry.Path = formatPath(pv.Path())
	}

	return entry
}

func formatPath(path []sim.ActorID) string {
	buf := make([]byte, 0, len(path)*3)

	for i, a := range path {
		if i > 0 {
			buf = append(buf, '>')
		}

		buf = append(buf, a.String()...)
	}

	return string(buf)
}
