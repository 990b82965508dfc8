package router

import (
	"context"
	"strings"

	"github.com/usherbot/usher/internal/domain"
)

// registerHelp installs the built-in help command. It reads the registry at
// dispatch time, so commands registered after construction still show up.
func (r *Router) registerHelp() {
	r.Cmd("help", func(ctx context.Context, c *domain.Context) (any, error) {
		var b strings.Builder
		b.WriteString("Available commands:\n")
		for _, cmd := range r.commands {
			if cmd.Predicate != nil {
				continue
			}
			b.WriteString("* ")
			b.WriteString(cmd.Source)
			if cmd.Description != "" {
				b.WriteString(" - ")
				b.WriteString(cmd.Description)
			}
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}, WithDescription("list available commands"))
}
