package tool

import (
	"strings"
	"sync"
)

// Buffer accumulates the streamed input addressed to one tool. Reads are
// destructive: Consume returns everything buffered so far and clears it, so
// each review turn starts from an empty buffer. A Buffer is owned by exactly
// one tool instance.
type Buffer struct {
	mu sync.Mutex
	b  strings.Builder
}

// Append adds streamed text to the buffer.
func (b *Buffer) Append(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.b.WriteString(text)
}

// Consume returns the buffered text and resets the buffer.
func (b *Buffer) Consume() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.b.String()
	b.b.Reset()
	return out
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Len()
}
