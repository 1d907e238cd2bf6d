package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	DateAdded       Kind = "date.added"
	DateRemoved     Kind = "date.removed"
	DateModified    Kind = "date.modified"
	ScheduleChanged Kind = "schedule.reconciled"
	AttendanceSet   Kind = "attendance.set"
	ColumnFilled    Kind = "attendance.column_filled"
	ClassChanged    Kind = "class.changed"
	ClassDeleted    Kind = "class.deleted"
	StudentChanged  Kind = "student.changed"
	StudentDeleted  Kind = "student.deleted"
	SettingsChanged Kind = "settings.changed"
	StoreReplaced   Kind = "store.replaced"
)

// Event is published after a change has been committed.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Kind    Kind      `json:"kind"`
	ClassNo string    `json:"class_no,omitempty"`
	Subject string    `json:"subject,omitempty"`
	At      time.Time `json:"at"`
}

const recentSize = 100

// Bus fans committed changes out to UI subscribers. A nil *Bus drops events.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]func(Event)
	nextID int
	recent []Event
}

func NewBus() *Bus {
	return &Bus{subs: map[int]func(Event){}}
}

// Subscribe registers fn for every future event and returns its cancel func.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers an event synchronously to every subscriber and keeps it
// in the recent ring.
func (b *Bus) Publish(kind Kind, classNo, subject string) Event {
	ev := Event{ID: uuid.New(), Kind: kind, ClassNo: classNo, Subject: subject, At: time.Now().UTC()}
	if b == nil {
		return ev
	}

	b.mu.Lock()
	b.recent = append(b.recent, ev)
	if len(b.recent) > recentSize {
		b.recent = b.recent[len(b.recent)-recentSize:]
	}
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return ev
}

// Recent returns up to n of the latest events, oldest first.
func (b *Bus) Recent(n int) []Event {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.recent) {
		n = len(b.recent)
	}
	return append([]Event(nil), b.recent[len(b.recent)-n:]...)
}
