package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

func TestTruncatePreservesSystemEntry(t *testing.T) {
	sess := newSession("s1")
	for i := 0; i < 20; i++ {
		sess.appendMessage(domain.ChatMessage{Role: domain.UserRole, Content: "msg"})
	}

	sess.truncate(8)

	history := sess.History()
	require.Len(t, history, 8)
	assert.Equal(t, domain.SystemRole, history[0].Role)
	assert.Equal(t, SystemPrompt, history[0].Content)
}

func TestTruncateDropsOldestFirst(t *testing.T) {
	sess := newSession("s1")
	sess.appendMessage(domain.ChatMessage{Role: domain.UserRole, Content: "old"})
	sess.appendMessage(domain.ChatMessage{Role: domain.AssistantRole, Content: "older reply"})
	sess.appendMessage(domain.ChatMessage{Role: domain.UserRole, Content: "new"})
	sess.appendMessage(domain.ChatMessage{Role: domain.AssistantRole, Content: "new reply"})

	sess.truncate(3)

	history := sess.History()
	require.Len(t, history, 3)
	assert.Equal(t, domain.SystemRole, history[0].Role)
	assert.Equal(t, "new", history[1].Content)
	assert.Equal(t, "new reply", history[2].Content)
}

func TestTruncateNoopUnderCap(t *testing.T) {
	sess := newSession("s1")
	sess.appendMessage(domain.ChatMessage{Role: domain.UserRole, Content: "msg"})

	sess.truncate(10)

	assert.Len(t, sess.History(), 2)
}

func TestSessionManagerGetOrCreate(t *testing.T) {
	m := NewSessionManager()

	first := m.GetOrCreate("abc")
	second := m.GetOrCreate("abc")
	assert.Same(t, first, second)
	assert.Equal(t, 1, m.Count())

	_, err := m.Get("unknown")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionManagerCreateAssignsDistinctIDs(t *testing.T) {
	m := NewSessionManager()
	a := m.Create()
	b := m.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Count())
}

func TestSessionSingleFlight(t *testing.T) {
	sess := newSession("s1")

	require.True(t, sess.tryAcquire())
	assert.False(t, sess.tryAcquire())
	sess.release()
	assert.True(t, sess.tryAcquire())
	sess.release()
}
