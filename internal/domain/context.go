package domain

import "context"

// ReplyFunc sends text back to a chat over the active transport.
type ReplyFunc func(ctx context.Context, chat, text string) error

// ResponseMeta carries mutable response metadata. Vestigial for a chat
// transport, kept for forward compatibility with HTTP-like surfaces.
type ResponseMeta struct {
	Status  int
	Headers map[string]string
}

// Context is the per-dispatch bag passed through hooks, middleware and the
// handler. Created at the start of Handle, discarded after.
type Context struct {
	Msg    *Message
	Raw    []byte
	Params map[string]any
	Set    ResponseMeta
	Result any

	reply ReplyFunc
}

func NewContext(msg *Message, reply ReplyFunc) *Context {
	return &Context{
		Msg:    msg,
		Raw:    msg.Raw,
		Params: make(map[string]any),
		Set:    ResponseMeta{Headers: make(map[string]string)},
		reply:  reply,
	}
}

// Reply sends text to the chat the message came from.
func (c *Context) Reply(ctx context.Context, text string) error {
	return c.reply(ctx, c.Msg.Chat, text)
}
