package router

import (
	"github.com/usherbot/usher/pkg/errors"
)

type groupConfig struct {
	sep string
}

type GroupOption func(*groupConfig)

// WithSeparator overrides the string placed between the current prefix and
// the group prefix (default single space).
func WithSeparator(sep string) GroupOption {
	return func(g *groupConfig) { g.sep = sep }
}

// Group runs fn with the composed prefix pushed and middleware/hooks shadowed
// by copies. When fn returns, the prefix stack, middleware and hooks are back
// to their pre-call state; commands registered inside fn persist. fn runs
// synchronously.
func (r *Router) Group(prefix string, fn func(*Router), opts ...GroupOption) *Router {
	cfg := groupConfig{sep: " "}
	for _, opt := range opts {
		opt(&cfg)
	}

	depth := len(r.prefixes)
	mw := r.mw
	hooks := r.hooks

	r.prefixes = append(r.prefixes, r.currentPrefix().Compose(prefix, cfg.sep))
	r.mw = mw.Clone()
	r.hooks = cloneHooks(hooks)

	defer func() {
		r.prefixes = r.prefixes[:depth]
		r.mw = mw
		r.hooks = hooks
	}()

	fn(r)
	return r
}

// Plugin is anything installable onto a router.
type Plugin interface {
	Install(r *Router)
}

// PluginFunc adapts a plain function to Plugin.
type PluginFunc func(*Router)

func (f PluginFunc) Install(r *Router) { f(r) }

type useConfig struct {
	prefix string
}

type UseOption func(*useConfig)

// WithPrefix namespaces everything the plugin registers.
func WithPrefix(prefix string) UseOption {
	return func(u *useConfig) { u.prefix = prefix }
}

// Use installs a plugin inside a Group under the given prefix. A *Router
// plugin is additionally attached as a child of this router, which is what
// scoped and global hook propagation walk.
func (r *Router) Use(p Plugin, opts ...UseOption) *Router {
	cfg := useConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if sub, ok := p.(*Router); ok {
		if sub == r {
			panic(errors.NewConfigError("router cannot use itself", nil))
		}
		r.adopt(sub)
	}

	r.Group(cfg.prefix, func(g *Router) {
		p.Install(g)
	})
	return r
}

func (r *Router) adopt(child *Router) {
	if child.parent == r {
		return
	}
	child.parent = r
	r.children = append(r.children, child)
}

// Install makes *Router a Plugin. A local-scope router re-registers its
// pattern commands onto the target under the target's active prefix. Each
// command carries its own middleware engine, already containing the plugin's
// global middleware from the original registration, so the bundle keeps its
// behavior without the target merging the plugin's globals a second time.
// Hooks do not carry over; predicate commands are bound to the plugin's own
// registry and stay there.
func (p *Router) Install(target *Router) {
	if p.opts.Scope != ScopeLocal {
		return
	}
	for _, cmd := range p.commands {
		if cmd.Predicate != nil {
			continue
		}
		target.register(cmd.origText, cmd.origRe, nil, cmd.Handler, cmdConfig{
			args: cmd.Args,
			desc: cmd.Description,
		}, cmd.Middleware)
	}
}
