package conversation

import "time"

// Turn is one completed exchange with the reasoning model.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	At        time.Time `json:"at"`
}

// Session is the per-sender conversation state.
type Session struct {
	Sender          string    `json:"sender"`
	Language        string    `json:"language,omitempty"`
	LanguageSettled bool      `json:"language_settled,omitempty"`
	MessageCount    int       `json:"message_count"`
	LastSeen        time.Time `json:"last_seen"`
	History         []Turn    `json:"history,omitempty"`
}

func NewSession(sender string, now time.Time) *Session {
	return &Session{Sender: sender, LastSeen: now}
}

// Expired reports whether the session has been idle longer than timeout.
// A non-positive timeout never expires.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	if s == nil {
		return true
	}
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastSeen) > timeout
}

// AppendTurn records an exchange and keeps at most maxTurns of them,
// dropping the oldest first.
func (s *Session) AppendTurn(user, assistant string, at time.Time, maxTurns int) {
	if maxTurns <= 0 {
		s.History = nil
		return
	}
	s.History = append(s.History, Turn{User: user, Assistant: assistant, At: at})
	if over := len(s.History) - maxTurns; over > 0 {
		s.History = append([]Turn(nil), s.History[over:]...)
	}
}

// Messages flattens the history into alternating user/assistant messages.
func (s *Session) Messages() []ChatMessage {
	if s == nil || len(s.History) == 0 {
		return nil
	}
	out := make([]ChatMessage, 0, len(s.History)*2)
	for _, t := range s.History {
		out = append(out,
			ChatMessage{Role: ChatRoleUser, Content: t.User},
			ChatMessage{Role: ChatRoleAssistant, Content: t.Assistant},
		)
	}
	return out
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.History != nil {
		c.History = append([]Turn(nil), s.History...)
	}
	return &c
}
