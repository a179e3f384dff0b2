// Package conversation holds the in-memory message log of the currently
// selected conversation. The log is append-only: entries are never edited or
// removed except by Clear on a selection switch.
package conversation

import (
	"sort"
	"sync"

	"coachlink/messaging/internal/models"
)

// Log is the ordered message list for one conversation. Only the composer
// (optimistic local sends) and the delivery router (inbound events) append to
// it. Safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	msgs []models.Message
	// byCorrelation indexes msgs by correlation id for echo deduplication.
	byCorrelation map[string]int

	// While a history fetch is in flight, live appends are parked here and
	// merge-sorted in once the backlog is installed.
	buffering bool
	parked    []models.Message
}

func NewLog() *Log {
	return &Log{byCorrelation: make(map[string]int)}
}

// Append adds a message in arrival order. A message whose correlation id is
// already present is not appended again; if the existing entry is a
// local-pending copy and the duplicate came back over the channel, the entry
// is promoted to confirmed-sent instead. Returns true if the log changed.
func (l *Log) Append(m models.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.buffering {
		l.parked = append(l.parked, m)
		return false
	}
	return l.append(m)
}

// append assumes l.mu is held.
func (l *Log) append(m models.Message) bool {
	if m.CorrelationID != "" {
		if i, ok := l.byCorrelation[m.CorrelationID]; ok {
			if l.msgs[i].Origin == models.OriginLocalPending && m.Origin != models.OriginLocalPending {
				l.msgs[i].Origin = models.OriginConfirmedSent
				return true
			}
			return false
		}
		l.byCorrelation[m.CorrelationID] = len(l.msgs)
	}
	l.msgs = append(l.msgs, m)
	return true
}

// ConfirmSent promotes a local-pending entry to confirmed-sent.
func (l *Log) ConfirmSent(correlationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byCorrelation[correlationID]
	if !ok || l.msgs[i].Origin != models.OriginLocalPending {
		return false
	}
	l.msgs[i].Origin = models.OriginConfirmedSent
	return true
}

// BeginBacklog switches the log into buffering mode: subsequent appends are
// parked until InstallBacklog runs. Called when a history fetch is dispatched.
func (l *Log) BeginBacklog() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buffering = true
	l.parked = nil
}

// InstallBacklog replaces the log contents with the fetched backlog, then
// merges any messages that arrived live while the fetch was in flight.
// Ordering is by timestamp ascending (stable, so equal timestamps keep
// backlog-before-live order) and parked duplicates of backlog entries are
// dropped by correlation id.
func (l *Log) InstallBacklog(backlog []models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.msgs = nil
	l.byCorrelation = make(map[string]int)
	for _, m := range backlog {
		l.append(m)
	}

	parked := l.parked
	l.parked = nil
	l.buffering = false
	for _, m := range parked {
		l.append(m)
	}
	sort.SliceStable(l.msgs, func(i, j int) bool {
		return l.msgs[i].Timestamp.Before(l.msgs[j].Timestamp)
	})
	for i, m := range l.msgs {
		if m.CorrelationID != "" {
			l.byCorrelation[m.CorrelationID] = i
		}
	}
}

// Clear wipes the log when the selection switches.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = nil
	l.parked = nil
	l.buffering = false
	l.byCorrelation = make(map[string]int)
}

// Snapshot returns a copy of the visible log for rendering.
func (l *Log) Snapshot() []models.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Len returns the number of visible messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
