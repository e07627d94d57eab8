package stash

import (
	"time"

	"github.com/cybergodev/stash/internal"
)

// Message is an immutable record of a single log call. It is created at
// log-call time, appended to a Buffer, and never mutated afterwards.
type Message struct {
	// Text is the message body, coerced to valid UTF-8 at creation.
	Text string

	// Time is when the message was created.
	Time time.Time

	// Severity is the level of the originating log call.
	Severity Severity
}

// NewMessage creates a Message stamped with the current time.
// The text is cleaned to valid UTF-8 exactly once, here.
func NewMessage(severity Severity, text string) Message {
	return NewMessageAt(severity, text, time.Now())
}

// NewMessageAt creates a Message with an explicit creation time.
func NewMessageAt(severity Severity, text string, t time.Time) Message {
	return Message{
		Text:     internal.UTF8(text),
		Time:     t,
		Severity: severity,
	}
}
