package router

import (
	"context"

	"go.uber.org/zap"

	"github.com/usherbot/usher/internal/domain"
	"github.com/usherbot/usher/pkg/errors"
)

// Hook names key the lifecycle observer lists. Hooks augment the context;
// unlike middleware their return values never gate dispatch.
type Hook string

const (
	HookRequest       Hook = "request"
	HookParse         Hook = "parse"
	HookTransform     Hook = "transform"
	HookAfterResponse Hook = "afterResponse"
	HookPairing       Hook = "pairing"
)

type HookFunc func(ctx context.Context, c *domain.Context) error

func validHook(h Hook) bool {
	switch h {
	case HookRequest, HookParse, HookTransform, HookAfterResponse, HookPairing:
		return true
	}
	return false
}

// On registers a hook according to the router's scope: local attaches here,
// scoped also to the immediate parent, global to every router reachable from
// the tree root. Propagation happens at registration time; children attached
// later do not receive earlier global hooks.
func (r *Router) On(h Hook, fn HookFunc) *Router {
	if !validHook(h) {
		panic(errors.NewConfigError("invalid hook name", map[string]any{"hook": string(h)}))
	}

	switch r.opts.Scope {
	case ScopeScoped:
		r.attach(h, fn)
		if r.parent != nil {
			r.parent.attach(h, fn)
		}
	case ScopeGlobal:
		root := r
		for root.parent != nil {
			root = root.parent
		}
		queue := []*Router{root}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			node.attach(h, fn)
			queue = append(queue, node.children...)
		}
	default:
		r.attach(h, fn)
	}
	return r
}

func (r *Router) attach(h Hook, fn HookFunc) {
	r.hooks[h] = append(r.hooks[h], fn)
}

func (r *Router) OnRequest(fn HookFunc) *Router       { return r.On(HookRequest, fn) }
func (r *Router) OnParse(fn HookFunc) *Router         { return r.On(HookParse, fn) }
func (r *Router) OnTransform(fn HookFunc) *Router     { return r.On(HookTransform, fn) }
func (r *Router) OnAfterResponse(fn HookFunc) *Router { return r.On(HookAfterResponse, fn) }

// Fire runs a hook list on demand. The transport layer uses it to surface
// lifecycle events such as pairing requests.
func (r *Router) Fire(ctx context.Context, h Hook, c *domain.Context) {
	if !validHook(h) {
		panic(errors.NewConfigError("invalid hook name", map[string]any{"hook": string(h)}))
	}
	r.runHooks(ctx, h, c)
}

// runHooks invokes each hook in order. Returns are discarded and errors only
// logged: hooks observe and mutate the context, they do not decide dispatch.
func (r *Router) runHooks(ctx context.Context, h Hook, c *domain.Context) {
	for _, fn := range r.hooks[h] {
		if err := fn(ctx, c); err != nil {
			r.log.Warn("Hook failed",
				zap.String("hook", string(h)),
				zap.Error(err),
			)
		}
	}
}

func cloneHooks(src map[Hook][]HookFunc) map[Hook][]HookFunc {
	out := make(map[Hook][]HookFunc, len(src))
	for k, v := range src {
		out[k] = append([]HookFunc(nil), v...)
	}
	return out
}
