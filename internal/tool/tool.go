// Package tool defines the polymorphic capability set the reviewer drives:
// each tool subscribes to a streamed tag, buffers its slice of the model
// response, and produces context items on demand.
package tool

import (
	"context"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/process"
)

// Tool is one capability the reviewer can invoke.
//
// During a review turn the multiplexer calls Stream with the text addressed
// to the tool's tag as it arrives, allowing the tool to act on partial
// output. Run is called once per turn after streaming and returns the
// context items the tool retrieved.
type Tool interface {
	// Tag is the XML-style tag the tool subscribes to in model output.
	Tag() string

	// Instruction returns the usage text enumerated in the system prompt.
	Instruction() string

	// Stream feeds the tool a fragment of tag-addressed model output.
	Stream(text string)

	// Run executes the tool against its buffered input. Failures are
	// isolated by the caller; returning an error never affects siblings.
	Run(ctx context.Context, steps *process.Manager) ([]domain.ContextItem, error)

	// Sequential declares that invocations of this tool must not run
	// concurrently with other sequential tools (shared or stateful
	// external resources). Non-sequential tools are fanned out together.
	Sequential() bool
}
