package process

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
)

// recorder captures notifier events for assertions.
type recorder struct {
	mu        sync.Mutex
	updates   []Step
	streams   []Step
	completes []error
	confirms  []Step
}

func (r *recorder) OnUpdate(_ string, s Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func (r *recorder) OnStream(s Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = append(r.streams, s)
}

func (r *recorder) OnComplete(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, err)
}

func (r *recorder) OnConfirmationNeeded(_ string, s Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirms = append(r.confirms, s)
}

func TestStepLifecycle(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)

	id := m.StartStep("search", "")
	m.StreamStep(id, "part one, ")
	m.StreamStep(id, "part two")
	m.AttachItems(id, []domain.ContextItem{{URI: "a.go", Source: domain.SourceTool}})
	m.CompleteStep(id, nil)

	step, ok := m.Step(id)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, step.Status)
	assert.Equal(t, "part one, part two", step.Content)
	assert.Len(t, step.Items, 1)

	assert.Len(t, rec.streams, 2)
	assert.Len(t, rec.completes, 1)
	assert.NoError(t, rec.completes[0])
}

func TestCompleteStepExactlyOnce(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)

	id := m.StartStep("shell", "")
	m.CompleteStep(id, errors.New("command failed"))
	m.CompleteStep(id, nil)
	m.CompleteStep(id, errors.New("again"))

	step, _ := m.Step(id)
	assert.Equal(t, StatusError, step.Status)
	assert.Equal(t, "command failed", step.Err)
	assert.Len(t, rec.completes, 1, "OnComplete must fire exactly once per step")
}

func TestStreamAfterCompleteDropped(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)

	id := m.StartStep("file", "")
	m.CompleteStep(id, nil)
	m.StreamStep(id, "late")

	step, _ := m.Step(id)
	assert.Empty(t, step.Content)
	assert.Empty(t, rec.streams)
}

func TestStepsOrdered(t *testing.T) {
	m := NewManager(nil, nil)

	first := m.StartStep("one", "")
	second := m.StartStep("two", "")

	steps := m.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, first, steps[0].ID)
	assert.Equal(t, second, steps[1].ID)
}

func TestConcurrentStepUpdates(t *testing.T) {
	m := NewManager(&recorder{}, nil)
	id := m.StartStep("concurrent", "")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.StreamStep(id, "x")
		}()
	}
	wg.Wait()
	m.CompleteStep(id, nil)

	step, _ := m.Step(id)
	assert.Len(t, step.Content, 16)
}
