package models

import "time"

// Turn is one answered question.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// History is the ordered list of turns of one session, oldest first.
type History []Turn

// Clone returns a copy that callers may keep without aliasing session state.
func (h History) Clone() History {
	if len(h) == 0 {
		return History{}
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// Messages flattens the history into alternating user/bot entries, oldest first.
func (h History) Messages() []Message {
	out := make([]Message, 0, len(h)*2)
	for _, t := range h {
		out = append(out, Message{Sender: SenderUser, Text: t.Question})
		out = append(out, Message{Sender: SenderBot, Text: t.Answer})
	}
	return out
}

// Sender is who wrote a displayed message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single displayable history entry.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
