package reconcile

import (
	"encoding/json"
)

// Item is one entry of a client-held ordered collection, e.g. a card within
// a column. Fields holds the user-facing field snapshot as delivered by the
// server or as rendered optimistically.
type Item struct {
	ID     string
	Fields json.RawMessage
}

// Event is one input to the reconciliation merge. Events are applied in
// arrival order by a single goroutine, so handlers never race.
type Event interface{ isEvent() }

// SnapshotLoaded carries the authoritative initial collection fetched on
// mount. Remote events arriving before it are dropped, not buffered.
type SnapshotLoaded struct {
	Items []Item
}

// LocalCreatePending prepends an optimistic placeholder with a
// client-generated temporary id. CorrelationID ties the placeholder to the
// server confirmation and to the echoed added event.
type LocalCreatePending struct {
	TempID        string
	CorrelationID string
	Fields        json.RawMessage
}

// LocalCreateConfirmed rewrites the placeholder's id in place once the
// server has assigned the real one. The item keeps its position.
type LocalCreateConfirmed struct {
	TempID string
	ID     string
	Fields json.RawMessage
}

// LocalCreateFailed rolls the placeholder back out of the collection.
type LocalCreateFailed struct {
	TempID string
}

// RemoteAdded prepends an entity created elsewhere. An event carrying the
// correlation id of one of our own optimistic creates is an echo and is
// ignored.
type RemoteAdded struct {
	Item          Item
	CorrelationID string
}

// RemoteUpdated replaces the entity in place, preserving its position.
// Unknown ids are ignored.
type RemoteUpdated struct {
	Item Item
}

// RemoteDestroyed removes the entity if present.
type RemoteDestroyed struct {
	ID string
}

func (SnapshotLoaded) isEvent()       {}
func (LocalCreatePending) isEvent()   {}
func (LocalCreateConfirmed) isEvent() {}
func (LocalCreateFailed) isEvent()    {}
func (RemoteAdded) isEvent()          {}
func (RemoteUpdated) isEvent()        {}
func (RemoteDestroyed) isEvent()      {}

// maxPendingEchos bounds the remembered correlation ids of optimistic
// creates. The oldest id is forgotten first; by then its echo has long been
// delivered and dropped.
const maxPendingEchos = 128

// command is one entry of the store's input queue: an event to merge, or a
// view request when reply is set.
type command struct {
	ev    Event
	reply chan []Item
}

// Store merges three input streams (initial snapshot, local optimistic
// mutations, remote subscription events) into one consistent ordered
// collection, newest first. All merging happens on one goroutine fed by a
// single queue, mirroring the cooperative single-threaded event handling of
// a browser client. View requests travel through the same queue, so a view
// never overtakes an event applied before it.
type Store struct {
	commands chan command
	done     chan struct{}

	// goroutine-owned state
	items        []Item
	bootstrapped bool
	pendingEchos map[string]bool
	echoOrder    []string
}

func NewStore() *Store {
	s := &Store{
		commands:     make(chan command, 64),
		done:         make(chan struct{}),
		pendingEchos: make(map[string]bool),
	}
	go s.run()
	return s
}

// Apply queues an event for merging.
func (s *Store) Apply(ev Event) {
	select {
	case s.commands <- command{ev: ev}:
	case <-s.done:
	}
}

// View returns a copy of the current ordered collection, after every event
// queued before the call has been merged.
func (s *Store) View() []Item {
	reply := make(chan []Item, 1)
	select {
	case s.commands <- command{reply: reply}:
	case <-s.done:
		return nil
	}
	select {
	case view := <-reply:
		return view
	case <-s.done:
		return nil
	}
}

// Close stops the merging goroutine. Events applied after Close are
// discarded.
func (s *Store) Close() {
	close(s.done)
}

func (s *Store) run() {
	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.commands:
			if cmd.reply != nil {
				view := make([]Item, len(s.items))
				copy(view, s.items)
				cmd.reply <- view
				continue
			}
			s.merge(cmd.ev)
		}
	}
}

func (s *Store) merge(ev Event) {
	switch e := ev.(type) {
	case SnapshotLoaded:
		if s.bootstrapped {
			return
		}
		s.items = append([]Item(nil), e.Items...)
		s.bootstrapped = true

	case LocalCreatePending:
		if s.indexOf(e.TempID) >= 0 {
			return
		}
		if e.CorrelationID != "" {
			s.markEcho(e.CorrelationID)
		}
		s.items = append([]Item{{ID: e.TempID, Fields: e.Fields}}, s.items...)

	case LocalCreateConfirmed:
		if i := s.indexOf(e.TempID); i >= 0 {
			s.items[i].ID = e.ID
			if e.Fields != nil {
				s.items[i].Fields = e.Fields
			}
		}

	case LocalCreateFailed:
		s.remove(e.TempID)

	case RemoteAdded:
		if !s.bootstrapped {
			return
		}
		// Echo of our own optimistic create, or a replayed add. The
		// correlation id stays marked so a replayed echo is also dropped.
		if e.CorrelationID != "" && s.pendingEchos[e.CorrelationID] {
			return
		}
		if s.indexOf(e.Item.ID) >= 0 {
			return
		}
		s.items = append([]Item{e.Item}, s.items...)

	case RemoteUpdated:
		if !s.bootstrapped {
			return
		}
		if i := s.indexOf(e.Item.ID); i >= 0 {
			s.items[i] = e.Item
		}

	case RemoteDestroyed:
		if !s.bootstrapped {
			return
		}
		s.remove(e.ID)
	}
}

// markEcho remembers a correlation id so its echoed added event is dropped.
// The set is bounded; the oldest id is evicted once the cap is reached.
func (s *Store) markEcho(correlationID string) {
	if s.pendingEchos[correlationID] {
		return
	}
	s.pendingEchos[correlationID] = true
	s.echoOrder = append(s.echoOrder, correlationID)
	if len(s.echoOrder) > maxPendingEchos {
		delete(s.pendingEchos, s.echoOrder[0])
		s.echoOrder = s.echoOrder[1:]
	}
}

func (s *Store) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) remove(id string) {
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}
