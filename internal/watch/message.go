package watch

import "time"

// DefaultErrorTTL is how long a directory error stays visible.
const DefaultErrorTTL = 5 * time.Second

// Message is a pane-scoped error text that expires.
type Message struct {
	Text  string
	Until time.Time
}

// NewMessage returns a message visible for ttl from now.
func NewMessage(text string, ttl time.Duration) Message {
	return Message{Text: text, Until: time.Now().Add(ttl)}
}

// Active reports whether the message should still be shown at now.
func (m Message) Active(now time.Time) bool {
	return m.Text != "" && !now.After(m.Until)
}
