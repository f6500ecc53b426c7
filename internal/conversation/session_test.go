package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionAppendTurnKeepsNewest(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sess := NewSession("whatsapp:+919800000001", now)

	for i := 0; i < 20; i++ {
		sess.AppendTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), now, 6)
		assert.LessOrEqual(t, len(sess.History), 6)
	}

	if assert.Len(t, sess.History, 6) {
		assert.Equal(t, "q14", sess.History[0].User)
		assert.Equal(t, "a19", sess.History[5].Assistant)
	}
}

func TestSessionAppendTurnWithoutHistory(t *testing.T) {
	sess := NewSession("s", time.Now())
	sess.AppendTurn("q", "a", time.Now(), 0)
	assert.Empty(t, sess.History)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	sess := NewSession("s", now.Add(-6*time.Minute))

	assert.True(t, sess.Expired(now, 5*time.Minute))
	assert.False(t, sess.Expired(now, 10*time.Minute))
	assert.False(t, sess.Expired(now, 0))

	var nilSession *Session
	assert.True(t, nilSession.Expired(now, time.Minute))
}

func TestSessionMessagesAlternateRoles(t *testing.T) {
	sess := NewSession("s", time.Now())
	sess.AppendTurn("I have a fever", "Rest and drink fluids.", time.Now(), 6)
	sess.AppendTurn("Still hot", "Please visit a health center.", time.Now(), 6)

	msgs := sess.Messages()
	assert.Equal(t, []ChatMessage{
		{Role: ChatRoleUser, Content: "I have a fever"},
		{Role: ChatRoleAssistant, Content: "Rest and drink fluids."},
		{Role: ChatRoleUser, Content: "Still hot"},
		{Role: ChatRoleAssistant, Content: "Please visit a health center."},
	}, msgs)
}
