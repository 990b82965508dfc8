// Package adapter normalizes opaque transport payloads into the canonical
// message shape the router consumes.
package adapter

import (
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/usherbot/usher/internal/domain"
)

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// MessageAdapter extracts sender/chat/body/mentions/quoted from raw payload
// bytes without binding to a transport-specific struct.
type MessageAdapter struct {
	logger *zap.Logger
}

func NewMessageAdapter(logger *zap.Logger) *MessageAdapter {
	return &MessageAdapter{logger: logger}
}

// Event returns the payload's event discriminator, empty for plain messages.
func (ma *MessageAdapter) Event(raw []byte) string {
	return gjson.GetBytes(raw, "event").String()
}

// Normalize builds a domain.Message from a raw payload. Returns nil when the
// payload has no usable body.
func (ma *MessageAdapter) Normalize(raw []byte) *domain.Message {
	if !gjson.ValidBytes(raw) {
		ma.logger.Debug("Dropping non-JSON payload", zap.Int("bytes", len(raw)))
		return nil
	}

	body := ma.sanitize(gjson.GetBytes(raw, "body").String())
	if body == "" {
		return nil
	}

	msg := &domain.Message{
		Body:      body,
		Chat:      gjson.GetBytes(raw, "chat").String(),
		Sender:    gjson.GetBytes(raw, "sender").String(),
		Raw:       raw,
		Timestamp: time.Now(),
	}

	for _, m := range gjson.GetBytes(raw, "mentions").Array() {
		if id := m.String(); id != "" {
			msg.Mentions = append(msg.Mentions, id)
		}
	}

	if quoted := gjson.GetBytes(raw, "quoted"); quoted.Exists() {
		msg.Quoted = &domain.Message{
			Body:   ma.sanitize(quoted.Get("body").String()),
			Chat:   msg.Chat,
			Sender: quoted.Get("sender").String(),
		}
	}

	return msg
}

func (ma *MessageAdapter) sanitize(input string) string {
	withoutControl := controlCharsPattern.ReplaceAllString(input, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(withoutControl, " "))
}
