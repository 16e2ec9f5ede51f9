// Package state tracks the pipeline's current phase and recent
// progress lines for the status endpoint.
package state

import (
	"fmt"
	"sync"
	"time"

	"rbitracker/types"
)

const maxLogs = 50

// Manager holds the run state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	currentState types.State
	logs         []types.LogEntry
	lastReport   *types.RunReport
	lastErr      error
}

// NewManager creates a Manager in the idle state.
func NewManager() *Manager {
	return &Manager{
		currentState: types.StateIdle,
		logs:         make([]types.LogEntry, 0),
	}
}

// SetState sets the current state.
func (m *Manager) SetState(state types.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = state
}

// State returns the current state.
func (m *Manager) State() types.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// AddLog appends a progress line, keeping the last maxLogs entries.
func (m *Manager) AddLog(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(fmt.Sprintf(format, args...))
}

// SetError moves to the error state and records the failure.
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = types.StateError
	m.lastErr = err
	m.appendLog(fmt.Sprintf("Error: %v", err))
}

// SetReport records the terminal report of a finished run and returns
// the manager to idle.
func (m *Manager) SetReport(report *types.RunReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = types.StateIdle
	m.lastReport = report
	m.lastErr = nil
}

// Status returns a snapshot for GET /api/status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := types.StatusResponse{
		State:      m.currentState,
		Logs:       append([]types.LogEntry{}, m.logs...),
		LastReport: m.lastReport,
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}

// appendLog must be called with the lock held.
func (m *Manager) appendLog(message string) {
	m.logs = append(m.logs, types.LogEntry{Timestamp: time.Now(), Message: message})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}
