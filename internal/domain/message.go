package domain

import "time"

// Message is the canonical inbound message the router consumes, normalized
// from whatever the transport delivered. Raw keeps the untouched payload so
// predicate commands can match on fields normalization drops.
type Message struct {
	Body      string
	Chat      string
	Sender    string
	Mentions  []string
	Quoted    *Message
	Raw       []byte
	Timestamp time.Time
}

func NewMessage(body, chat, sender string) *Message {
	return &Message{
		Body:      body,
		Chat:      chat,
		Sender:    sender,
		Timestamp: time.Now(),
	}
}
