package services

import (
	"context"
	"sync"

	"github.com/casefile-games/casefile/pkg/story"
)

// MockStoryService is a scripted StoryService for testing and offline
// play. Replies are consumed in order; when the script runs out, a plain
// text fallback is returned.
type MockStoryService struct {
	OpenSessionFunc func(ctx context.Context, systemInstruction string) (StorySession, error)
	SendTurnFunc    func(ctx context.Context, message string) (story.Reply, error)

	// Track calls for testing
	OpenSessionCalls []string
	SendTurnCalls    []string

	script   []story.Reply
	fallback string

	mu sync.Mutex // protects all fields above
}

// NewMockStoryService creates a new mock story service.
func NewMockStoryService() *MockStoryService {
	return &MockStoryService{
		OpenSessionCalls: make([]string, 0),
		SendTurnCalls:    make([]string, 0),
		fallback:         "The fog shifts, but nothing else moves.",
	}
}

// Script queues replies to be returned by successive SendTurn calls.
func (m *MockStoryService) Script(replies ...story.Reply) *MockStoryService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, replies...)
	return m
}

// OpenSession mocks session establishment.
func (m *MockStoryService) OpenSession(ctx context.Context, systemInstruction string) (StorySession, error) {
	m.mu.Lock()
	m.OpenSessionCalls = append(m.OpenSessionCalls, systemInstruction)
	fn := m.OpenSessionFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, systemInstruction)
	}
	return &mockSession{svc: m}, nil
}

// SetOpenSessionError sets up the mock to fail session establishment.
func (m *MockStoryService) SetOpenSessionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenSessionFunc = func(ctx context.Context, systemInstruction string) (StorySession, error) {
		return nil, err
	}
}

// SetSendTurnError sets up the mock to fail every turn.
func (m *MockStoryService) SetSendTurnError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendTurnFunc = func(ctx context.Context, message string) (story.Reply, error) {
		return story.Reply{}, err
	}
}

// Calls returns a copy of the call tracking data.
func (m *MockStoryService) Calls() (openSession []string, sendTurn []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	openSession = make([]string, len(m.OpenSessionCalls))
	copy(openSession, m.OpenSessionCalls)
	sendTurn = make([]string, len(m.SendTurnCalls))
	copy(sendTurn, m.SendTurnCalls)
	return openSession, sendTurn
}

type mockSession struct {
	svc *MockStoryService
}

func (s *mockSession) SendTurn(ctx context.Context, message string) (story.Reply, error) {
	m := s.svc

	m.mu.Lock()
	m.SendTurnCalls = append(m.SendTurnCalls, message)
	fn := m.SendTurnFunc
	var next *story.Reply
	if fn == nil && len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		next = &r
	}
	fallback := m.fallback
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, message)
	}
	if next != nil {
		return *next, nil
	}
	return story.TextReply(fallback), nil
}
