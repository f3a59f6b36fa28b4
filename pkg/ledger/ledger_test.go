package ledger

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/wemzee/chamaledger/pkg/models"
)

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Publish(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []EventKind
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestLedger() (*Ledger, *MockStore, *recordingNotifier) {
	s := NewMockStore()
	n := &recordingNotifier{}
	return NewLedger(s, n, nil), s, n
}

func seedMember(t *testing.T, l *Ledger, name string) *models.Member {
	t.Helper()
	suffix := uuid.New().String()[:8]
	m, err := l.RegisterMember(name, name+"-"+suffix+"@example.com", "ID-"+suffix, "+254700000000", models.RoleMember, models.NextOfKin{})
	if err != nil {
		t.Fatalf("failed to seed member %s: %v", name, err)
	}
	return m
}
