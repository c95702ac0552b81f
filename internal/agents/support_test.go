package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

func newTestSupportAgent() (*SupportAgent, commerce.AgentContext) {
	s := store.NewMemoryStore()
	return NewSupportAgent(s), commerce.AgentContext{SessionID: "sess_1", UserID: "user_1", Channel: "web"}
}

func TestSupportAgentEscalateOpensHighPriorityTicketOnUrgentLanguage(t *testing.T) {
	a, actx := newTestSupportAgent()
	result, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "create_ticket", Params: map[string]interface{}{"query": "I need this refunded urgently"},
	}, actx)
	require.NoError(t, err)
	require.True(t, result.Success)
	ticket := result.Data["ticket"].(*store.SupportTicket)
	require.Equal(t, "high", ticket.Priority)
	require.Equal(t, "billing_issue", ticket.Category)
}

func TestSupportAgentEscalateReusesOpenTicket(t *testing.T) {
	a, actx := newTestSupportAgent()
	first, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "create_ticket", Params: map[string]interface{}{"query": "my order is late"},
	}, actx)
	require.NoError(t, err)
	firstTicket := first.Data["ticket"].(*store.SupportTicket)

	second, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "create_ticket", Params: map[string]interface{}{"query": "still waiting"},
	}, actx)
	require.NoError(t, err)
	secondTicket := second.Data["ticket"].(*store.SupportTicket)

	require.Equal(t, firstTicket.ID, secondTicket.ID)
	require.Len(t, secondTicket.Messages, 2)
}

func TestSupportAgentCloseTicketRequiresOpenTicket(t *testing.T) {
	a, actx := newTestSupportAgent()
	_, err := a.Execute(context.Background(), commerce.AgentAction{Name: "close_ticket", Params: map[string]interface{}{}}, actx)
	require.Error(t, err)
	require.Equal(t, commerce.ErrNotFound, commerce.Kind(err))
}

func TestSupportAgentAnswerQuestionFallsBackToCapabilities(t *testing.T) {
	a, actx := newTestSupportAgent()
	result, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "answer_question", Params: map[string]interface{}{"query": "what can you do"},
	}, actx)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Contains(t, result.Data, "capabilities")
}

func TestSupportAgentAnswerQuestionRedirectsHumanRequestToEscalation(t *testing.T) {
	a, actx := newTestSupportAgent()
	result, err := a.Execute(context.Background(), commerce.AgentAction{
		Name: "answer_question", Params: map[string]interface{}{"query": "I want to talk to a human agent"},
	}, actx)
	require.NoError(t, err)
	require.Contains(t, result.Data, "ticket")
}
