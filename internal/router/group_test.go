package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usherbot/usher/internal/domain"
)

func TestGroupPrefixesCommands(t *testing.T) {
	r, sender := newTestRouter(Options{})

	r.Group("admin", func(g *Router) {
		g.Reply("stats", "42")
	})

	dispatch(r, "stats")
	assert.Empty(t, sender.calls)

	dispatch(r, "admin stats")
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "42", sender.calls[0].text)
}

func TestGroupRestoresAmbientState(t *testing.T) {
	r, _ := newTestRouter(Options{})

	before := r.currentPrefix()
	hookCount := len(r.hooks[HookRequest])

	r.Group("ns", func(g *Router) {
		g.OnBeforeHandle(func(ctx context.Context, c *domain.Context) (any, error) {
			return nil, nil
		})
		g.OnRequest(func(ctx context.Context, c *domain.Context) error {
			return nil
		})
		g.Reply("inside", "ok")
	})

	assert.Equal(t, before, r.currentPrefix())
	assert.Len(t, r.hooks[HookRequest], hookCount)
	assert.Len(t, r.prefixes, 1)
	// Commands registered inside the group persist.
	require.Len(t, r.commands, 1)
}

func TestGroupMiddlewareScopedToGroup(t *testing.T) {
	r, _ := newTestRouter(Options{})

	var ran []string
	r.Group("ns", func(g *Router) {
		g.OnBeforeHandle(func(ctx context.Context, c *domain.Context) (any, error) {
			ran = append(ran, "group before")
			return nil, nil
		})
		g.Reply("inside", "ok")
	})
	r.Reply("outside", "ok")

	dispatch(r, "outside")
	assert.Empty(t, ran)

	dispatch(r, "ns inside")
	assert.Equal(t, []string{"group before"}, ran)
}

func TestGroupSeparator(t *testing.T) {
	r, sender := newTestRouter(Options{Prefix: "!"})

	r.Group("db", func(g *Router) {
		g.Reply("get", "value")
	}, WithSeparator(":"))

	dispatch(r, "!:db get")
	require.Len(t, sender.calls, 1)
}

func TestCompositePluginPrefixRegression(t *testing.T) {
	plugin := New(Options{Scope: ScopeLocal}, nil)
	plugin.Reply("plug", "plugged")

	r, sender := newTestRouter(Options{})
	r.Group("admin", func(g *Router) {
		g.Use(plugin, WithPrefix("p"))
	})

	dispatch(r, "admin plug")
	assert.Empty(t, sender.calls)

	dispatch(r, "admin p plug")
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "plugged", sender.calls[0].text)
}

func TestPluginBeforeHandleIsolation(t *testing.T) {
	var pluginBeforeRan []string
	plugin := New(Options{Scope: ScopeLocal}, nil)
	plugin.OnBeforeHandle(func(ctx context.Context, c *domain.Context) (any, error) {
		pluginBeforeRan = append(pluginBeforeRan, c.Msg.Body)
		return nil, nil
	})
	plugin.Reply("plug", "plugged")

	r, _ := newTestRouter(Options{})
	r.Reply("top", "top reply")
	r.Use(plugin, WithPrefix("p"))

	// Parent-declared commands do not inherit the plugin's global middleware.
	dispatch(r, "top")
	assert.Empty(t, pluginBeforeRan)

	// Plugin-internal commands keep their own before-handle after mounting.
	dispatch(r, "p plug")
	assert.Equal(t, []string{"p plug"}, pluginBeforeRan)
}

func TestPluginFuncInstallsUnderPrefix(t *testing.T) {
	r, sender := newTestRouter(Options{})

	r.Use(PluginFunc(func(g *Router) {
		g.Reply("version", "1.0")
	}), WithPrefix("sys"))

	dispatch(r, "sys version")
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "1.0", sender.calls[0].text)
}

func TestUseSelfPanics(t *testing.T) {
	r, _ := newTestRouter(Options{})

	requireConfigPanic(t, func() {
		r.Use(r)
	})
}

func TestInvalidScopePanics(t *testing.T) {
	requireConfigPanic(t, func() {
		New(Options{Scope: "galactic"}, nil)
	})
}

func TestInvalidHookNamePanics(t *testing.T) {
	r, _ := newTestRouter(Options{})

	requireConfigPanic(t, func() {
		r.On("bogus", func(ctx context.Context, c *domain.Context) error {
			return nil
		})
	})
}

func TestMalformedPairingNumberPanics(t *testing.T) {
	requireConfigPanic(t, func() {
		New(Options{PairingNumber: "not-a-number"}, nil)
	})
}

func TestLocalHookStaysLocal(t *testing.T) {
	parent, _ := newTestRouter(Options{})
	child := New(Options{Scope: ScopeLocal}, nil)
	parent.Use(child)

	var fired []string
	child.OnRequest(func(ctx context.Context, c *domain.Context) error {
		fired = append(fired, "child hook")
		return nil
	})

	parent.Reply("ping", "Pong!")
	dispatch(parent, "ping")

	assert.Empty(t, fired)
}

func TestScopedHookReachesParent(t *testing.T) {
	parent, _ := newTestRouter(Options{})
	child := New(Options{Scope: ScopeScoped}, nil)
	parent.Use(child)

	var fired []string
	child.OnRequest(func(ctx context.Context, c *domain.Context) error {
		fired = append(fired, "scoped hook")
		return nil
	})

	parent.Reply("ping", "Pong!")
	dispatch(parent, "ping")

	assert.Equal(t, []string{"scoped hook"}, fired)
}

func TestGlobalHookPropagatesAcrossTree(t *testing.T) {
	root, _ := newTestRouter(Options{})
	left := New(Options{Scope: ScopeGlobal}, nil)
	right := New(Options{Scope: ScopeLocal}, nil)
	right.Connect(&fakeSender{})
	root.Use(left)
	root.Use(right)

	var fired []string
	left.OnRequest(func(ctx context.Context, c *domain.Context) error {
		fired = append(fired, "global hook")
		return nil
	})

	// Propagated at registration time to every node reachable from the root.
	right.Reply("ping", "Pong!")
	dispatch(right, "ping")
	dispatch(root, "anything")

	assert.Equal(t, []string{"global hook", "global hook"}, fired)
}

func TestLaterChildrenDoNotReceiveEarlierGlobalHooks(t *testing.T) {
	root, _ := newTestRouter(Options{Scope: ScopeGlobal})
	root.OnRequest(func(ctx context.Context, c *domain.Context) error {
		return nil
	})

	late := New(Options{Scope: ScopeLocal}, nil)
	root.Use(late)

	assert.Empty(t, late.hooks[HookRequest])
}

func TestHelpListsCommands(t *testing.T) {
	r, sender := newTestRouter(Options{Help: true})

	r.Reply("ping", "Pong!", WithDescription("health check"))

	dispatch(r, "help")

	require.Len(t, sender.calls, 1)
	assert.Contains(t, sender.calls[0].text, "help")
	assert.Contains(t, sender.calls[0].text, "ping - health check")
}

func TestFireRunsHookList(t *testing.T) {
	r, _ := newTestRouter(Options{PairingNumber: "821012345678"})

	var fired bool
	r.On(HookPairing, func(ctx context.Context, c *domain.Context) error {
		fired = true
		return nil
	})

	msg := domain.NewMessage("", "room1", "user1")
	c := domain.NewContext(msg, func(ctx context.Context, chat, text string) error { return nil })
	r.Fire(context.Background(), HookPairing, c)

	assert.True(t, fired)
}
