package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/agents"
	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/config"
	"github.com/nextlevelbuilder/goclaw/internal/intent"
	"github.com/nextlevelbuilder/goclaw/internal/planner"
	"github.com/nextlevelbuilder/goclaw/internal/session"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	memStore := store.NewMemoryStore()
	sessions := session.New(time.Minute)

	cfg := config.Default()
	cfg.LLM.PlannerFeatureEnabled = false
	cfg.LLM.PlannerEnabled = false
	cfg.LLM.DecisionPolicy = "classifier_first"

	agentMap := map[string]agents.Agent{
		"cart":    agents.NewCartAgent(memStore, 0.08, 6.99),
		"order":   agents.NewOrderAgent(memStore, 6.99),
		"product": agents.NewProductAgent(memStore),
		"support": agents.NewSupportAgent(memStore),
		"memory":  agents.NewMemoryAgent(memStore),
	}

	return New(Dependencies{
		Classifier: intent.New(nil),
		Context:    NewContextBuilder(sessions, memStore),
		Planner:    planner.New(nil, cfg.LLM.PlannerMaxActions, cfg.LLM.PlannerMinConfidence),
		Sessions:   sessions,
		Memory:     memStore,
		Agents:     agentMap,
		Config:     cfg,
	})
}

func TestProcessMessageSearchProductsSingleAction(t *testing.T) {
	o := newTestOrchestrator(t)
	resp := o.ProcessMessage(context.Background(), "show me some shoes", "sess_1", "", "web")
	require.True(t, resp.Success)
	require.Equal(t, "product", resp.Agent)
}

func TestProcessMessageRecordsInteractionAndConversation(t *testing.T) {
	o := newTestOrchestrator(t)
	o.ProcessMessage(context.Background(), "show me some shoes", "sess_1", "", "web")

	recent := o.sessions.RecentInteractions("sess_1", 10)
	require.Len(t, recent, 1)
	require.Equal(t, "show me some shoes", recent[0].Message)

	s := o.sessions.GetOrCreateSession("sess_1")
	require.Equal(t, "show me some shoes", s.Conversation.LastMessage)
}

func TestProcessMessageUnknownAgentReturnsFailure(t *testing.T) {
	o := newTestOrchestrator(t)
	delete(o.agentsMap, "support")

	resp := o.ProcessMessage(context.Background(), "I need help with my order", "sess_2", "", "web")
	require.False(t, resp.Success)
}

func TestCanaryBucketIsDeterministic(t *testing.T) {
	a := canaryBucket("user_1", "sess_1")
	b := canaryBucket("user_1", "sess_1")
	require.Equal(t, a, b)
	require.GreaterOrEqual(t, a, 0)
	require.Less(t, a, 100)
}

func TestPlannerEnabledForRequestDisabledByDefault(t *testing.T) {
	o := newTestOrchestrator(t)
	require.False(t, o.plannerEnabledForRequest("sess_1", "user_1"))
}

func TestApplyActionLimitTruncates(t *testing.T) {
	actionList := []commerce.AgentAction{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	limited, truncated := applyActionLimit(actionList, 2)
	require.Len(t, limited, 2)
	require.Equal(t, 1, truncated)
}

func TestMergeAgentDataAccumulatesRepeatedAgent(t *testing.T) {
	combined := map[string]interface{}{}
	mergeAgentData(combined, "cart", map[string]interface{}{"step": 1})
	mergeAgentData(combined, "cart", map[string]interface{}{"step": 2})

	list, ok := combined["cart"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)
}
