package agents

import (
	"context"
	"strings"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// SupportAgent handles escalation to a human-reviewed ticket, ticket
// status lookups, and closing tickets, grounded on support_agent.py /
// support_service.py. It reuses an existing open ticket with a
// follow-up note instead of always opening a new one.
type SupportAgent struct {
	store *store.MemoryStore
}

func NewSupportAgent(s *store.MemoryStore) *SupportAgent {
	return &SupportAgent{store: s}
}

func (a *SupportAgent) Name() string { return "support" }

func (a *SupportAgent) Execute(ctx context.Context, action commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	switch action.Name {
	case "create_ticket":
		return a.escalate(action.Params, actx)
	case "ticket_status":
		return a.status(actx)
	case "close_ticket":
		return a.close(action.Params, actx)
	case "answer_question":
		return a.answer(action.Params, actx)
	default:
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "unsupported support action: "+action.Name)
	}
}

func (a *SupportAgent) escalate(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	issue := paramString(params, "query")
	if issue == "" {
		issue = paramString(params, "issue")
	}
	if issue == "" {
		return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrValidation, "tell me what you need help with")
	}

	if open := a.store.LatestOpenTicket(actx.UserID, actx.SessionID); open != nil {
		open.Messages = append(open.Messages, store.TicketMessage{
			Actor: "customer", Message: "Customer follow-up: " + issue, Timestamp: time.Now(),
		})
		a.store.SaveTicket(open)
		return commerce.AgentExecutionResult{
			Success: true,
			Message: "I've added your message to your open ticket " + open.ID + ".",
			Data:    map[string]interface{}{"ticket": open},
		}, nil
	}

	t := &store.SupportTicket{
		UserID: actx.UserID, SessionID: actx.SessionID,
		Issue: issue, Category: inferTicketCategory(issue), Priority: inferTicketPriority(issue),
		Status: "open", Channel: actx.Channel,
		Messages:  []store.TicketMessage{{Actor: "customer", Message: issue, Timestamp: time.Now()}},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	a.store.CreateTicket(t)
	return commerce.AgentExecutionResult{
		Success: true,
		Message: "I've opened ticket " + t.ID + " (" + t.Priority + " priority) and a specialist will follow up.",
		Data:    map[string]interface{}{"ticket": t},
	}, nil
}

func (a *SupportAgent) status(actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	tickets := a.store.ListTicketsForSession(actx.UserID, actx.SessionID)
	if len(tickets) == 0 {
		return commerce.AgentExecutionResult{
			Success: true, Message: "You don't have any support tickets yet.",
		}, nil
	}
	latest := tickets[0]
	return commerce.AgentExecutionResult{
		Success: true,
		Message: "Your latest ticket " + latest.ID + " is " + latest.Status + " (" + latest.Priority + " priority).",
		Data:    map[string]interface{}{"ticket": latest},
	}, nil
}

func (a *SupportAgent) close(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	var t *store.SupportTicket
	if id := paramString(params, "ticketId"); id != "" {
		found, ok := a.store.GetTicket(id)
		if !ok {
			return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrNotFound, "ticket not found")
		}
		t = found
	} else {
		t = a.store.LatestOpenTicket(actx.UserID, actx.SessionID)
		if t == nil {
			return commerce.AgentExecutionResult{}, commerce.NewError(commerce.ErrNotFound, "you don't have an open ticket to close")
		}
	}
	t.Status = "resolved"
	t.Resolution = "Resolved by support"
	a.store.SaveTicket(t)
	return commerce.AgentExecutionResult{
		Success: true,
		Message: "Closed ticket " + t.ID + ". Thanks for your patience.",
		Data:    map[string]interface{}{"ticket": t},
	}, nil
}

// answer handles the extractor's catch-all action for unmatched or
// general_question turns: a few canned topic answers, a redirect into
// escalate() for anything that sounds like a request for a human, and a
// generic capabilities blurb otherwise, mirroring support_agent.py's tail.
func (a *SupportAgent) answer(params map[string]interface{}, actx commerce.AgentContext) (commerce.AgentExecutionResult, error) {
	query := paramString(params, "query")
	lower := strings.ToLower(query)

	switch {
	case strings.Contains(lower, "return"):
		return commerce.AgentExecutionResult{
			Success: true,
			Message: "Most items can be returned within 30 days if unused and in original packaging.",
			Data:    map[string]interface{}{"topic": "returns"},
		}, nil
	case strings.Contains(lower, "size"):
		return commerce.AgentExecutionResult{
			Success: true,
			Message: "If you're between sizes, we usually recommend sizing up for running shoes.",
			Data:    map[string]interface{}{"topic": "sizing"},
		}, nil
	case strings.Contains(lower, "human") || strings.Contains(lower, "agent") || strings.Contains(lower, "ticket"):
		return a.escalate(params, actx)
	default:
		return commerce.AgentExecutionResult{
			Success: true,
			Message: "I can help with product search, cart updates, checkout, order status, and returns questions.",
			Data:    map[string]interface{}{"capabilities": []string{"search", "cart", "checkout", "order_status", "returns"}},
		}, nil
	}
}

func inferTicketCategory(issue string) string {
	s := strings.ToLower(issue)
	switch {
	case strings.Contains(s, "order") || strings.Contains(s, "delivery"):
		return "order_issue"
	case strings.Contains(s, "payment") || strings.Contains(s, "refund"):
		return "billing_issue"
	case strings.Contains(s, "size") || strings.Contains(s, "fit"):
		return "sizing"
	default:
		return "general"
	}
}

func inferTicketPriority(issue string) string {
	s := strings.ToLower(issue)
	if strings.Contains(s, "urgent") || strings.Contains(s, "asap") || strings.Contains(s, "immediately") {
		return "high"
	}
	return "normal"
}
