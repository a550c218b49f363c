package outreach

import (
	"context"
	"time"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// mockStore implements store.Store in memory.
type mockStore struct {
	state     *model.OutreachState
	loadErr   error
	commitErr error

	commits   int
	committed *model.OutreachState
}

func newMockStore() *mockStore {
	return &mockStore{state: model.NewOutreachState()}
}

func (m *mockStore) Load(context.Context) (*model.OutreachState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.state, nil
}

func (m *mockStore) Commit(_ context.Context, state *model.OutreachState) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits++
	m.committed = state
	return nil
}

func (m *mockStore) Close() error { return nil }

// mockSender records sent contacts and fails the emails listed in
// failFor.
type mockSender struct {
	failFor map[string]error
	sent    []string
}

func (m *mockSender) Send(_ context.Context, contact model.ContactRecord) error {
	if err, ok := m.failFor[contact.Email]; ok {
		return err
	}
	m.sent = append(m.sent, contact.Email)
	return nil
}

// fixedClock returns a constant time.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }
