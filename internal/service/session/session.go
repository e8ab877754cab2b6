package session

import (
	"sync"

	"github.com/google/uuid"
)

// Header carries the client session identifier.
const Header = "X-Session-ID"

// State is what a single client has already done today.
type State struct {
	Voted     map[string]bool
	Fulfilled map[string]bool
}

// SessionManager tracks per-session votes and fulfilments in memory. Nothing
// is persisted; everything is dropped at rollover.
type SessionManager struct {
	sessions map[string]*State
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*State),
	}
}

// NewID returns a fresh session identifier for clients that sent none.
func NewID() string {
	return uuid.NewString()
}

// HasVoted reports whether the session already voted on spotID.
func (sm *SessionManager) HasVoted(sessionID, spotID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if state, exists := sm.sessions[sessionID]; exists {
		return state.Voted[spotID]
	}
	return false
}

// MarkVoted records a vote. It returns false when the session had already voted.
func (sm *SessionManager) MarkVoted(sessionID, spotID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	state := sm.stateLocked(sessionID)
	if state.Voted[spotID] {
		return false
	}
	state.Voted[spotID] = true
	return true
}

// MarkFulfilled records a fulfilment. It returns false when already recorded.
func (sm *SessionManager) MarkFulfilled(sessionID, requestID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	state := sm.stateLocked(sessionID)
	if state.Fulfilled[requestID] {
		return false
	}
	state.Fulfilled[requestID] = true
	return true
}

// Forget undoes a vote mark, used when the vote could not be applied.
func (sm *SessionManager) Forget(sessionID, spotID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if state, exists := sm.sessions[sessionID]; exists {
		delete(state.Voted, spotID)
	}
}

// ForgetFulfilled undoes a fulfilment mark, used when the request could not be closed.
func (sm *SessionManager) ForgetFulfilled(sessionID, requestID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if state, exists := sm.sessions[sessionID]; exists {
		delete(state.Fulfilled, requestID)
	}
}

// Purge drops every session and returns how many there were.
func (sm *SessionManager) Purge() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	n := len(sm.sessions)
	sm.sessions = make(map[string]*State)
	return n
}

func (sm *SessionManager) stateLocked(sessionID string) *State {
	state, exists := sm.sessions[sessionID]
	if !exists {
		state = &State{Voted: make(map[string]bool), Fulfilled: make(map[string]bool)}
		sm.sessions[sessionID] = state
	}
	return state
}
