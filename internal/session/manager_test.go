package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

func TestGetOrCreateSessionCreatesOnce(t *testing.T) {
	m := New(time.Minute)
	s1 := m.GetOrCreateSession("sess_1")
	s2 := m.GetOrCreateSession("sess_1")
	require.Same(t, s1, s2)
}

func TestGetOrCreateSessionReplacesExpired(t *testing.T) {
	m := New(time.Millisecond)
	s1 := m.GetOrCreateSession("sess_1")
	time.Sleep(5 * time.Millisecond)
	s2 := m.GetOrCreateSession("sess_1")
	require.NotSame(t, s1, s2)
}

func TestAttachUserBindsUserID(t *testing.T) {
	m := New(time.Minute)
	s := m.AttachUser("sess_1", "user_1")
	require.Equal(t, "user_1", s.UserID)
}

func TestUpdateConversationRecordsLatestTurn(t *testing.T) {
	m := New(time.Minute)
	m.UpdateConversation("sess_1", "search_products", "product", "show me shoes", map[string]interface{}{"category": "shoes"})
	s := m.GetOrCreateSession("sess_1")
	require.Equal(t, "search_products", s.Conversation.LastIntent)
	require.Equal(t, "product", s.Conversation.LastAgent)
	require.Equal(t, "shoes", s.Conversation.Entities["category"])
}

func TestUpdateShoppingBoundsHistory(t *testing.T) {
	m := New(time.Minute)
	for i := 0; i < 25; i++ {
		m.UpdateShopping("sess_1", "", "prod_x", "")
	}
	s := m.GetOrCreateSession("sess_1")
	require.Len(t, s.Shopping.ViewedProducts, 20)
}

func TestRecentInteractionsBoundedAndOrdered(t *testing.T) {
	m := New(time.Minute)
	for i := 0; i < 5; i++ {
		m.RecordInteraction("sess_1", commerce.InteractionRecord{Message: string(rune('a' + i))})
	}
	recent := m.RecentInteractions("sess_1", 2)
	require.Len(t, recent, 2)
	require.Equal(t, "d", recent[0].Message)
	require.Equal(t, "e", recent[1].Message)
}

func TestRecentInteractionsRingBuffered(t *testing.T) {
	m := New(time.Minute)
	for i := 0; i < maxInteractionLog+10; i++ {
		m.RecordInteraction("sess_1", commerce.InteractionRecord{Message: "x"})
	}
	all := m.RecentInteractions("sess_1", 0)
	require.Len(t, all, maxInteractionLog)
}
