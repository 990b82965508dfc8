package router

import (
	"context"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/usherbot/usher/internal/domain"
	"github.com/usherbot/usher/internal/schema"
)

// Handle dispatches one inbound message. At most one command executes: the
// commands are tried in registration order and the first match wins. Nothing
// a handler, middleware or schema does can escape Handle; all failures are
// funneled into the matched command's error middleware.
func (r *Router) Handle(ctx context.Context, msg *domain.Message) {
	if r.sender == nil {
		r.log.Warn("No transport attached, dropping message",
			zap.String("chat", msg.Chat),
		)
		return
	}

	c := domain.NewContext(msg, r.sender.SendText)

	r.runHooks(ctx, HookRequest, c)
	r.runHooks(ctx, HookParse, c)
	r.runHooks(ctx, HookTransform, c)

	for _, cmd := range r.commands {
		params, ok := match(cmd, msg)
		if !ok {
			continue
		}
		r.dispatch(ctx, c, cmd, params)
		return
	}

	r.log.Debug("No command matched", zap.String("body", msg.Body))
}

// match runs the command's compiled pattern against the body, or its
// predicate against the raw message. Captured groups that did not participate
// in the match are left out of params entirely.
func match(cmd *Command, msg *domain.Message) (map[string]any, bool) {
	if cmd.Pattern != nil {
		idx := cmd.Pattern.FindStringSubmatchIndex(msg.Body)
		if idx == nil {
			return nil, false
		}
		params := make(map[string]any)
		for gi, name := range cmd.Pattern.SubexpNames() {
			if name == "" || 2*gi+1 >= len(idx) {
				continue
			}
			if idx[2*gi] >= 0 {
				params[name] = msg.Body[idx[2*gi]:idx[2*gi+1]]
			}
		}
		return params, true
	}
	if cmd.Predicate != nil && cmd.Predicate(msg) {
		return make(map[string]any), true
	}
	return nil, false
}

func (r *Router) dispatch(ctx context.Context, c *domain.Context, cmd *Command, params map[string]any) {
	// A nullable field whose segment was absent from the text must surface
	// as an explicit nil, not a missing key.
	if obj, ok := cmd.Args.(*schema.ObjectSchema); ok {
		for _, f := range obj.Fields() {
			if _, present := params[f.Name]; !present && schema.TraitsOf(f.Schema).Nullable {
				params[f.Name] = nil
			}
		}
	}
	c.Params = params

	if cmd.Args != nil {
		parsed, err := cmd.Args.Parse(c.Params)
		if err != nil {
			r.fail(ctx, c, cmd, err)
			return
		}
		if m, ok := parsed.(map[string]any); ok {
			c.Params = m
		}
	}

	var runErr error
	if rec := panics.Try(func() { runErr = r.run(ctx, c, cmd) }); rec != nil {
		runErr = rec.AsError()
	}
	if runErr != nil {
		r.fail(ctx, c, cmd, runErr)
	}
}

func (r *Router) run(ctx context.Context, c *domain.Context, cmd *Command) error {
	short, err := cmd.Middleware.ExecuteBefore(ctx, c)
	if err != nil {
		return err
	}
	if short != nil {
		c.Result = short
		if text, ok := short.(string); ok {
			return c.Reply(ctx, text)
		}
		return nil
	}

	result, err := cmd.Handler(ctx, c)
	if err != nil {
		return err
	}
	c.Result = result

	if _, err := cmd.Middleware.ExecuteAfter(ctx, c, result); err != nil {
		return err
	}

	if text, ok := result.(string); ok {
		if err := c.Reply(ctx, text); err != nil {
			return err
		}
	}

	r.runHooks(ctx, HookAfterResponse, c)
	return nil
}

func (r *Router) fail(ctx context.Context, c *domain.Context, cmd *Command, cause error) {
	r.log.Warn("Command failed",
		zap.String("command", cmd.Source),
		zap.Error(cause),
	)
	c.Result = cmd.Middleware.ExecuteError(ctx, c, cause)
}
