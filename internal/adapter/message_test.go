package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeExtractsFields(t *testing.T) {
	ma := NewMessageAdapter(zap.NewNop())

	raw := []byte(`{
		"body": "echo hello",
		"chat": "room1",
		"sender": "user1",
		"mentions": ["user2", "user3"],
		"quoted": {"body": "earlier text", "sender": "user2"}
	}`)

	msg := ma.Normalize(raw)
	require.NotNil(t, msg)
	assert.Equal(t, "echo hello", msg.Body)
	assert.Equal(t, "room1", msg.Chat)
	assert.Equal(t, "user1", msg.Sender)
	assert.Equal(t, []string{"user2", "user3"}, msg.Mentions)
	require.NotNil(t, msg.Quoted)
	assert.Equal(t, "earlier text", msg.Quoted.Body)
	assert.Equal(t, "user2", msg.Quoted.Sender)
	assert.Equal(t, raw, msg.Raw)
}

func TestNormalizeSanitizesBody(t *testing.T) {
	ma := NewMessageAdapter(zap.NewNop())

	msg := ma.Normalize([]byte("{\"body\": \"  hi\x00there\a  \", \"chat\": \"r\", \"sender\": \"s\"}"))
	require.NotNil(t, msg)
	assert.Equal(t, "hi there", msg.Body)
}

func TestNormalizeDropsEmptyBody(t *testing.T) {
	ma := NewMessageAdapter(zap.NewNop())

	assert.Nil(t, ma.Normalize([]byte(`{"chat": "r", "sender": "s"}`)))
	assert.Nil(t, ma.Normalize([]byte(`{"body": "   "}`)))
	assert.Nil(t, ma.Normalize([]byte(`not json`)))
}

func TestEventDiscriminator(t *testing.T) {
	ma := NewMessageAdapter(zap.NewNop())

	assert.Equal(t, "pairing", ma.Event([]byte(`{"event": "pairing"}`)))
	assert.Equal(t, "", ma.Event([]byte(`{"body": "hi"}`)))
}
