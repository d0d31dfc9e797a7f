package llm

import (
	"context"
	"sync"
)

// MockStreamer replays scripted responses, one per Chat call, chunked to
// exercise incremental delivery. Used in tests and offline runs.
type MockStreamer struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int

	// ChunkSize controls how many bytes each change event adds. Zero
	// streams each response as a single change event.
	ChunkSize int

	// Requests records the messages of every call for assertions.
	Requests [][]Message
}

// NewMockStreamer creates a mock that replays responses in order. Calls past
// the end of the script replay the last response.
func NewMockStreamer(responses ...string) *MockStreamer {
	return &MockStreamer{responses: responses}
}

// FailWith makes the i-th call (0-based) end with err instead of completing.
func (m *MockStreamer) FailWith(i int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.errs) <= i {
		m.errs = append(m.errs, nil)
	}
	m.errs[i] = err
}

// Calls returns how many times Chat was invoked.
func (m *MockStreamer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Chat implements Streamer.
func (m *MockStreamer) Chat(ctx context.Context, messages []Message, _ Options, _ string) (<-chan Event, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.Requests = append(m.Requests, messages)

	var response string
	if len(m.responses) > 0 {
		if call < len(m.responses) {
			response = m.responses[call]
		} else {
			response = m.responses[len(m.responses)-1]
		}
	}
	var scriptErr error
	if call < len(m.errs) {
		scriptErr = m.errs[call]
	}
	chunk := m.ChunkSize
	m.mu.Unlock()

	events := make(chan Event, 8)
	go func() {
		defer close(events)

		if scriptErr != nil {
			events <- Event{Type: EventError, Err: scriptErr}
			return
		}

		if chunk <= 0 {
			chunk = len(response)
		}
		for pos := 0; pos < len(response); pos += chunk {
			end := min(pos+chunk, len(response))
			select {
			case events <- Event{Type: EventChange, Text: response[:end]}:
			case <-ctx.Done():
				events <- Event{Type: EventError, Err: ctx.Err()}
				return
			}
		}
		events <- Event{Type: EventComplete, Text: response}
	}()
	return events, nil
}
