package agent

import (
	"fmt"
	"strings"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
	"github.com/perch-hq/agentic-context-engine/internal/tool"
)

// ReadySentinel is the designated response meaning "enough context is
// gathered, no further retrieval needed". A response consisting solely of
// this token terminates the review loop.
const ReadySentinel = "<ready_to_answer/>"

// contextTag wraps file names the model judges relevant; the reflection step
// re-resolves them to full content.
const contextTag = "context"

// maxImplicitMentions bounds how many non-user context items are listed in
// the review prompt; only the most recent ones are kept.
const maxImplicitMentions = 30

// maxInlineContentBytes bounds how much of an item's content is inlined.
const maxInlineContentBytes = 2000

// buildSystemPrompt enumerates the available tools and the review protocol.
func buildSystemPrompt(tools []tool.Tool, ideName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a context-retrieval agent embedded in %s. ", ideName)
	b.WriteString("Your job is to decide whether the shared context is enough to answer the user's request, and if not, to gather more using the tools below.\n\n")

	b.WriteString("## Tools\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- <%s>: %s\n", t.Tag(), t.Instruction())
	}

	b.WriteString("\n## Protocol\n")
	fmt.Fprintf(&b, "- If the context already suffices, reply with exactly %s and nothing else.\n", ReadySentinel)
	b.WriteString("- Otherwise invoke one or more tools by emitting their tags with the input between the opening and closing tag.\n")
	fmt.Fprintf(&b, "- List every file from the shared context that is relevant to the request as <%s>filename</%s>.\n", contextTag, contextTag)
	return b.String()
}

// buildUserPrompt lists the current context (explicit user mentions first,
// then the capped implicit ones) followed by the request under review.
func buildUserPrompt(question string, explicit, implicit []domain.ContextItem) string {
	var b strings.Builder

	if len(explicit) > 0 {
		b.WriteString("## Files shared by the user\n")
		for _, item := range explicit {
			writeItem(&b, item)
		}
		b.WriteString("\n")
	}
	if len(implicit) > 0 {
		b.WriteString("## Retrieved context\n")
		for _, item := range implicit {
			writeItem(&b, item)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Request\n")
	b.WriteString(question)
	return b.String()
}

func writeItem(b *strings.Builder, item domain.ContextItem) {
	fmt.Fprintf(b, "- %s (%s)", item.URI, item.Source)
	if item.IsTooLarge {
		b.WriteString(" [too large to inline]")
	}
	b.WriteString("\n")
	if item.Content == "" {
		return
	}
	content := item.Content
	if len(content) > maxInlineContentBytes {
		content = content[:maxInlineContentBytes] + "\n... (truncated)"
	}
	fmt.Fprintf(b, "```\n%s\n```\n", strings.TrimRight(content, "\n"))
}

// partitionContext splits the working context into explicit (user-anchored)
// mentions and the rest, capping the implicit share to the most recent
// maxImplicitMentions to bound prompt size.
func partitionContext(items []domain.ContextItem) (explicit, implicit []domain.ContextItem) {
	for _, item := range items {
		if item.IsUserAdded() {
			explicit = append(explicit, item)
		} else {
			implicit = append(implicit, item)
		}
	}
	if len(implicit) > maxImplicitMentions {
		implicit = implicit[len(implicit)-maxImplicitMentions:]
	}
	return explicit, implicit
}
