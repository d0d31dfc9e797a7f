package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/perch-hq/agentic-context-engine/internal/domain"
)

var contextMentionRE = regexp.MustCompile(`<` + contextTag + `>(.+?)</` + contextTag + `>`)

// reflect rebuilds the working context from the names the model listed in
// <context> tags. Each mentioned name keeps every working item whose URI
// ends with it, re-resolved through the workspace when possible so stale
// content is refreshed. User-added items always survive, appended after the
// reflected set. When the response mentions nothing, the working context is
// left untouched.
func (r *Reviewer) reflect(ctx context.Context, working *[]domain.ContextItem, response string) {
	names := mentionedNames(response)
	if len(names) == 0 {
		return
	}

	var reflected []domain.ContextItem
	for _, name := range names {
		for _, item := range *working {
			if !strings.HasSuffix(item.URI, name) {
				continue
			}
			resolved := item
			if r.resolver != nil {
				if fresh, err := r.resolver.Resolve(ctx, item.URI); err == nil && fresh != nil {
					resolved = *fresh
				}
			}
			reflected = append(reflected, resolved.WithSource(domain.SourceAgentic))
		}
	}
	if len(reflected) == 0 {
		return
	}
	*working = append(reflected, domain.UserAdded(*working)...)
}

// mentionedNames extracts the deduplicated file names from the response's
// <context> tags, in first-mention order.
func mentionedNames(response string) []string {
	matches := contextMentionRE.FindAllStringSubmatch(response, -1)
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
