// Package agent implements the iterative agentic context-retrieval loop:
// it streams a review completion, demultiplexes tagged output to tools,
// executes them, reflects on the results, and decides when to stop.
package agent

import "strings"

// subscriber is one tag's registration in a multiplexer.
type subscriber struct {
	tag      string
	stream   func(text string)
	complete func()
	sent     int
}

// multiplexer splits one incoming model response into independent per-tag
// channels. The response text arrives as a growing snapshot; each Publish
// forwards only the newly available inner text of every subscribed tag.
// One multiplexer serves exactly one review turn.
type multiplexer struct {
	subs     []*subscriber
	notified bool
}

func newMultiplexer() *multiplexer {
	return &multiplexer{}
}

// Subscribe registers a tag. stream receives inner text increments as they
// arrive; complete, if non-nil, fires exactly once when the turn ends.
func (m *multiplexer) Subscribe(tag string, stream func(string), complete func()) {
	m.subs = append(m.subs, &subscriber{tag: tag, stream: stream, complete: complete})
}

// Publish feeds the full accumulated response text seen so far. Text outside
// any subscribed tag is ignored.
func (m *multiplexer) Publish(fullText string) {
	if m.notified {
		return
	}
	m.forward(fullText, false)
}

// NotifyTurnComplete flushes any held-back text and fires every subscriber's
// completion callback. It is idempotent: only the first call has effect, so
// callers can guarantee delivery with a deferred invocation.
func (m *multiplexer) NotifyTurnComplete(fullText string) {
	if m.notified {
		return
	}
	m.notified = true
	m.forward(fullText, true)
	for _, s := range m.subs {
		if s.complete != nil {
			s.complete()
		}
	}
}

func (m *multiplexer) forward(fullText string, final bool) {
	for _, s := range m.subs {
		inner := innerText(fullText, s.tag, final)
		if len(inner) > s.sent {
			s.stream(inner[s.sent:])
			s.sent = len(inner)
		}
	}
}

// innerText concatenates the content of every <tag>...</tag> region in text.
// An unterminated region counts up to the end of text, minus any trailing
// bytes that could still turn out to be the start of the closing tag; final
// disables that hold-back.
func innerText(text, tag string, final bool) string {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	var inner strings.Builder
	pos := 0
	for {
		i := strings.Index(text[pos:], open)
		if i < 0 {
			break
		}
		start := pos + i + len(open)
		j := strings.Index(text[start:], closing)
		if j < 0 {
			segment := text[start:]
			if !final {
				segment = trimClosePrefix(segment, closing)
			}
			inner.WriteString(segment)
			break
		}
		inner.WriteString(text[start : start+j])
		pos = start + j + len(closing)
	}
	return inner.String()
}

// trimClosePrefix drops a trailing fragment of segment that is a proper
// prefix of the closing tag, so partially streamed closers are not leaked
// to subscribers.
func trimClosePrefix(segment, closing string) string {
	max := min(len(closing)-1, len(segment))
	for k := max; k > 0; k-- {
		if strings.HasPrefix(closing, segment[len(segment)-k:]) {
			return segment[:len(segment)-k]
		}
	}
	return segment
}
