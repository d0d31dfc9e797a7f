package process

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
)

// Manager owns the steps of a single agent run. It is safe for concurrent
// use; tool goroutines report through it while the loop streams.
type Manager struct {
	mu       sync.Mutex
	steps    map[string]*Step
	order    []string
	notifier Notifier
	logger   *zap.Logger
}

// NewManager creates a manager that forwards step events to notifier.
// A nil notifier is replaced with NopNotifier, a nil logger with zap.NewNop().
func NewManager(notifier Notifier, logger *zap.Logger) *Manager {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		steps:    make(map[string]*Step),
		notifier: notifier,
		logger:   logger.Named("process"),
	}
}

// StartStep creates a new pending step and returns its ID.
func (m *Manager) StartStep(title, content string) string {
	step := Step{
		ID:      uuid.NewString(),
		Title:   title,
		Content: content,
		Status:  StatusPending,
	}

	m.mu.Lock()
	m.steps[step.ID] = &step
	m.order = append(m.order, step.ID)
	m.mu.Unlock()

	m.logger.Debug("step started", zap.String("id", step.ID), zap.String("title", title))
	m.notifier.OnUpdate(step.ID, step)
	return step.ID
}

// StreamStep appends streamed content to a step and marks it streaming.
// Streaming updates after completion are dropped.
func (m *Manager) StreamStep(id, delta string) {
	m.mu.Lock()
	step, ok := m.steps[id]
	if !ok || step.Terminal() {
		m.mu.Unlock()
		return
	}
	step.Content += delta
	step.Status = StatusStreaming
	snapshot := *step
	m.mu.Unlock()

	m.notifier.OnStream(snapshot)
}

// AttachItems records the context items a step produced.
func (m *Manager) AttachItems(id string, items []domain.ContextItem) {
	m.mu.Lock()
	step, ok := m.steps[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	step.Items = append(step.Items, items...)
	snapshot := *step
	m.mu.Unlock()

	m.notifier.OnUpdate(id, snapshot)
}

// CompleteStep transitions a step to success or error. The first call wins;
// later calls are ignored so a step completes exactly once.
func (m *Manager) CompleteStep(id string, err error) {
	m.mu.Lock()
	step, ok := m.steps[id]
	if !ok || step.Terminal() {
		m.mu.Unlock()
		return
	}
	if err != nil {
		step.Status = StatusError
		step.Err = err.Error()
	} else {
		step.Status = StatusSuccess
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Debug("step failed", zap.String("id", id), zap.Error(err))
	}
	m.notifier.OnComplete(id, err)
}

// RequestConfirmation surfaces a step that needs user approval.
func (m *Manager) RequestConfirmation(id string) {
	m.mu.Lock()
	step, ok := m.steps[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	snapshot := *step
	m.mu.Unlock()

	m.notifier.OnConfirmationNeeded(id, snapshot)
}

// Step returns a snapshot of the step with the given ID.
func (m *Manager) Step(id string) (Step, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	step, ok := m.steps[id]
	if !ok {
		return Step{}, false
	}
	return *step, true
}

// Steps returns snapshots of all steps in creation order.
func (m *Manager) Steps() []Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Step, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.steps[id])
	}
	return out
}
