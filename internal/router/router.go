// Package router implements the command registry and dispatch engine. A
// Router is a node in a tree: children are attached with Use, and hook
// registrations propagate across the tree according to the router's scope.
package router

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/usherbot/usher/internal/domain"
	"github.com/usherbot/usher/internal/middleware"
	"github.com/usherbot/usher/internal/pattern"
	"github.com/usherbot/usher/internal/schema"
	"github.com/usherbot/usher/pkg/errors"
)

// Scope controls how far a hook registration propagates across the tree.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeScoped Scope = "scoped"
	ScopeGlobal Scope = "global"
)

// Handler runs a matched command and returns its result. A string result is
// replied to the chat verbatim.
type Handler func(ctx context.Context, c *domain.Context) (any, error)

// Predicate matches a command against the raw inbound message, for free-form
// matching on fields a body pattern cannot see.
type Predicate func(msg *domain.Message) bool

// Sender is the transport operation the router needs: deliver text to a chat.
type Sender interface {
	SendText(ctx context.Context, chat, text string) error
}

// Options is the immutable per-router configuration.
type Options struct {
	Scope         Scope
	Prefix        string
	PrefixRegexp  *regexp.Regexp
	Help          bool
	PairingNumber string
}

// Command is one routable unit. Exactly one of Pattern and Predicate is set.
// Commands are immutable after registration and owned by one router.
type Command struct {
	Pattern     *regexp.Regexp
	Source      string
	Predicate   Predicate
	Handler     Handler
	Args        schema.Schema
	Middleware  *middleware.Engine
	Description string

	origText string
	origRe   *regexp.Regexp
}

type Router struct {
	opts     Options
	log      *zap.Logger
	commands []*Command
	mw       *middleware.Engine
	hooks    map[Hook][]HookFunc
	prefixes []pattern.Prefix
	parent   *Router
	children []*Router
	sender   Sender
}

var pairingNumberRe = regexp.MustCompile(`^[0-9]{8,15}$`)

// New creates a router. Invalid options panic with a *errors.ConfigError:
// construction runs during synchronous setup where misuse must crash
// immediately.
func New(opts Options, logger *zap.Logger) *Router {
	if opts.Scope == "" {
		opts.Scope = ScopeLocal
	}
	switch opts.Scope {
	case ScopeLocal, ScopeScoped, ScopeGlobal:
	default:
		panic(errors.NewConfigError("invalid scope", map[string]any{"scope": string(opts.Scope)}))
	}
	if opts.PairingNumber != "" && !pairingNumberRe.MatchString(opts.PairingNumber) {
		panic(errors.NewConfigError("invalid pairing number", map[string]any{"number": opts.PairingNumber}))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := pattern.Prefix{Source: opts.Prefix, Literal: true}
	if opts.PrefixRegexp != nil {
		base = pattern.Prefix{Source: opts.PrefixRegexp.String(), Literal: false}
	}

	r := &Router{
		opts:     opts,
		log:      logger,
		mw:       middleware.NewEngine(),
		hooks:    make(map[Hook][]HookFunc),
		prefixes: []pattern.Prefix{base},
	}
	if opts.Help {
		r.registerHelp()
	}
	return r
}

// Connect attaches the active transport. Handle drops messages until a
// sender is attached.
func (r *Router) Connect(s Sender) {
	r.sender = s
}

// Commands returns the registry in registration order.
func (r *Router) Commands() []*Command {
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

type cmdConfig struct {
	args   schema.Schema
	desc   string
	before []middleware.BeforeFunc
	after  []middleware.AfterFunc
	errs   []middleware.ErrorFunc
}

// CommandOption configures one registration call.
type CommandOption func(*cmdConfig)

// WithArgs attaches the parameter schema. Object fields decide which pattern
// segments are optional and how captures are coerced.
func WithArgs(s schema.Schema) CommandOption {
	return func(c *cmdConfig) { c.args = s }
}

func WithDescription(desc string) CommandOption {
	return func(c *cmdConfig) { c.desc = desc }
}

func WithBefore(fns ...middleware.BeforeFunc) CommandOption {
	return func(c *cmdConfig) { c.before = append(c.before, fns...) }
}

func WithAfter(fns ...middleware.AfterFunc) CommandOption {
	return func(c *cmdConfig) { c.after = append(c.after, fns...) }
}

func WithError(fns ...middleware.ErrorFunc) CommandOption {
	return func(c *cmdConfig) { c.errs = append(c.errs, fns...) }
}

func applyOptions(opts []CommandOption) cmdConfig {
	var cfg cmdConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Cmd registers a string-pattern command under the active prefix.
func (r *Router) Cmd(pat string, h Handler, opts ...CommandOption) *Router {
	cfg := applyOptions(opts)
	r.register(pat, nil, nil, h, cfg, nil)
	return r
}

// CmdRe registers a regex-pattern command. Existing anchors are stripped and
// the expression is re-anchored behind the active prefix.
func (r *Router) CmdRe(re *regexp.Regexp, h Handler, opts ...CommandOption) *Router {
	cfg := applyOptions(opts)
	r.register("", re, nil, h, cfg, nil)
	return r
}

// Reply registers a command that answers with a fixed text.
func (r *Router) Reply(pat, text string, opts ...CommandOption) *Router {
	return r.Cmd(pat, func(ctx context.Context, c *domain.Context) (any, error) {
		return text, nil
	}, opts...)
}

// Hears registers a predicate command. The predicate sees the raw transport
// message, not the extracted body.
func (r *Router) Hears(p Predicate, h Handler, opts ...CommandOption) *Router {
	cfg := applyOptions(opts)
	r.register("", nil, p, h, cfg, nil)
	return r
}

// OnBeforeHandle appends global before-middleware. Only commands registered
// afterwards pick it up: registration merges the engine by value.
func (r *Router) OnBeforeHandle(fns ...middleware.BeforeFunc) *Router {
	r.mw.Before(fns...)
	return r
}

func (r *Router) OnAfterHandle(fns ...middleware.AfterFunc) *Router {
	r.mw.After(fns...)
	return r
}

func (r *Router) OnError(fns ...middleware.ErrorFunc) *Router {
	r.mw.OnError(fns...)
	return r
}

func (r *Router) currentPrefix() pattern.Prefix {
	return r.prefixes[len(r.prefixes)-1]
}

// register compiles and appends one command. perCall carries an already-built
// per-command engine (plugin re-registration); otherwise one is assembled
// from cfg. Registration-time failures panic with *errors.ConfigError.
func (r *Router) register(text string, re *regexp.Regexp, pred Predicate, h Handler, cfg cmdConfig, perCall *middleware.Engine) {
	optional := make(map[string]bool)
	if obj, ok := cfg.args.(*schema.ObjectSchema); ok {
		checkFieldOrder(obj)
		for _, f := range obj.Fields() {
			if !schema.TraitsOf(f.Schema).Required() {
				optional[f.Name] = true
			}
		}
	}

	cmd := &Command{
		Predicate:   pred,
		Handler:     h,
		Args:        cfg.args,
		Description: cfg.desc,
		origText:    text,
		origRe:      re,
	}

	if pred == nil {
		compiled, err := pattern.Compile(pattern.Spec{
			Text:     text,
			Regexp:   re,
			Prefix:   r.currentPrefix(),
			Optional: optional,
		})
		if err != nil {
			panic(errors.NewConfigError("invalid command pattern", map[string]any{
				"pattern": text,
				"cause":   err.Error(),
			}))
		}
		cmd.Pattern = compiled
		cmd.Source = text
		if re != nil {
			cmd.Source = re.String()
		}
	}

	if perCall == nil {
		perCall = middleware.NewEngine().
			Before(cfg.before...).
			After(cfg.after...).
			OnError(cfg.errs...)
	}
	cmd.Middleware = r.mw.Merge(perCall)

	r.commands = append(r.commands, cmd)
}

// checkFieldOrder enforces the authoring-time contract that required fields
// precede optional ones: optional pattern segments can only trail.
func checkFieldOrder(obj *schema.ObjectSchema) {
	seenOptional := false
	for _, f := range obj.Fields() {
		if schema.TraitsOf(f.Schema).Required() {
			if seenOptional {
				panic(errors.NewConfigError("required field follows optional field", map[string]any{
					"field": f.Name,
				}))
			}
			continue
		}
		seenOptional = true
	}
}
