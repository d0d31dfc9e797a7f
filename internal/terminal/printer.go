package terminal

import (
	"fmt"
	"io"
	"sync"

	"github.com/perch-hq/agentic-context-engine/internal/process"
)

// StepPrinter is a process.Notifier that prints step lifecycle events as
// styled log lines. Streaming updates are suppressed unless verbose.
type StepPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	logger  *Logger
	verbose bool
	titles  map[string]string
}

// NewStepPrinter creates a printer. out receives verbose stream output;
// lifecycle lines go through the styled logger.
func NewStepPrinter(out io.Writer, verbose bool) *StepPrinter {
	return &StepPrinter{
		out:     out,
		logger:  NewLogger(),
		verbose: verbose,
		titles:  make(map[string]string),
	}
}

// OnUpdate implements process.Notifier.
func (p *StepPrinter) OnUpdate(id string, step process.Step) {
	p.mu.Lock()
	_, known := p.titles[id]
	p.titles[id] = step.Title
	p.mu.Unlock()

	if !known {
		p.logger.Logf(StyleInfo, "%s started", step.Title)
		return
	}
	if len(step.Items) > 0 {
		p.logger.Logf(StyleDim, "%s retrieved %d item(s)", step.Title, len(step.Items))
	}
}

// OnStream implements process.Notifier.
func (p *StepPrinter) OnStream(step process.Step) {
	if !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s\n", step.Content)
}

// OnComplete implements process.Notifier.
func (p *StepPrinter) OnComplete(id string, err error) {
	p.mu.Lock()
	title := p.titles[id]
	p.mu.Unlock()
	if title == "" {
		title = id
	}

	if err != nil {
		p.logger.Logf(StyleError, "%s failed: %v", title, err)
		return
	}
	p.logger.Logf(StyleSuccess, "%s done", title)
}

// OnConfirmationNeeded implements process.Notifier.
func (p *StepPrinter) OnConfirmationNeeded(id string, step process.Step) {
	p.logger.Logf(StyleWarning, "%s awaiting confirmation:\n%s",
		step.Title, WrapText(step.Content, ReportWidth(), "  "))
}
