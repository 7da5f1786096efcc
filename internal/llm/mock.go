package llm

import (
	"context"
	"sync"
)

// MockClient for testing. Replies via Reply when set, otherwise echoes the
// user message. It records every prompt it receives.
type MockClient struct {
	Reply func(system, user string) (string, error)
	Error error

	mu          sync.Mutex
	SystemSeen  []string
	UserSeen    []string
	CallCount   int
	LastSystem  string
	LastUser    string
}

func (m *MockClient) Complete(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.CallCount++
	m.SystemSeen = append(m.SystemSeen, system)
	m.UserSeen = append(m.UserSeen, user)
	m.LastSystem = system
	m.LastUser = user
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if m.Reply != nil {
		return m.Reply(system, user)
	}
	return user, nil
}

func (m *MockClient) Close() error { return nil }
