// Package process tracks the human-visible steps of an agent run and fans
// their lifecycle out to a caller-supplied Notifier.
package process

import "github.com/perch-hq/agentic-context-engine/internal/domain"

// StepStatus is the lifecycle state of a processing step.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusStreaming StepStatus = "streaming"
	StatusSuccess   StepStatus = "success"
	StatusError     StepStatus = "error"
)

// Step is one visible unit of agent work. A step is created pending,
// optionally streams content updates, and is completed exactly once.
type Step struct {
	ID      string
	Title   string
	Content string
	Status  StepStatus
	Items   []domain.ContextItem
	Err     string
}

// Terminal reports whether the step has reached a final status.
func (s Step) Terminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}

// Notifier receives step lifecycle events. Implementations belong to the
// host (terminal, editor webview, test recorder); the engine only calls it.
type Notifier interface {
	// OnUpdate is called when a step is created or its fields change.
	OnUpdate(id string, step Step)

	// OnStream is called as streamed content accrues on a step.
	OnStream(step Step)

	// OnComplete is called exactly once per step, with the error if any.
	OnComplete(id string, err error)

	// OnConfirmationNeeded is called when a step requires user approval
	// before its work proceeds.
	OnConfirmationNeeded(id string, step Step)
}

// NopNotifier discards all events. Useful as a default.
type NopNotifier struct{}

func (NopNotifier) OnUpdate(string, Step)             {}
func (NopNotifier) OnStream(Step)                     {}
func (NopNotifier) OnComplete(string, error)          {}
func (NopNotifier) OnConfirmationNeeded(string, Step) {}
