package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

type fakeClient struct {
	enabled bool
	plan    *commerce.ActionPlan
	err     error
}

func (f *fakeClient) Enabled() bool { return f.enabled }

func (f *fakeClient) PlanActions(ctx context.Context, message string, recent []commerce.RecentTurn, allowed map[string][]string) (*commerce.ActionPlan, error) {
	return f.plan, f.err
}

func TestPlanDisabledClientReturnsNil(t *testing.T) {
	a := New(&fakeClient{enabled: false}, 5, 0.55)
	plan, truncated, err := a.Plan(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Nil(t, plan)
	require.Zero(t, truncated)
}

func TestPlanBelowConfidenceFloorDiscarded(t *testing.T) {
	client := &fakeClient{enabled: true, plan: &commerce.ActionPlan{
		Confidence: 0.4,
		Actions:    []commerce.PlanAction{{Name: "get_cart", TargetAgent: "cart"}},
	}}
	a := New(client, 5, 0.55)
	plan, _, err := a.Plan(context.Background(), "show my cart", nil)
	require.NoError(t, err)
	require.Nil(t, plan)
}

func TestPlanClarificationBypassesConfidenceFloor(t *testing.T) {
	client := &fakeClient{enabled: true, plan: &commerce.ActionPlan{
		Confidence:            0.1,
		NeedsClarification:    true,
		ClarificationQuestion: "Which size?",
	}}
	a := New(client, 5, 0.55)
	plan, truncated, err := a.Plan(context.Background(), "add that shoe", nil)
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.True(t, plan.NeedsClarification)
	require.Equal(t, "Which size?", plan.ClarificationQuestion)
	require.Zero(t, truncated)
}

func TestPlanDropsUnknownActionAndFiltersParams(t *testing.T) {
	client := &fakeClient{enabled: true, plan: &commerce.ActionPlan{
		Confidence: 0.8,
		Actions: []commerce.PlanAction{
			{Name: "search_products", TargetAgent: "product", Params: map[string]interface{}{
				"query": "shoes", "unexpectedField": "drop me",
			}},
			{Name: "launch_missiles", TargetAgent: "cart"},
		},
	}}
	a := New(client, 5, 0.55)
	plan, truncated, err := a.Plan(context.Background(), "find shoes", nil)
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Zero(t, truncated)
	require.Len(t, plan.Actions, 1)
	require.Equal(t, "search_products", plan.Actions[0].Name)
	require.Equal(t, map[string]interface{}{"query": "shoes"}, plan.Actions[0].Params)
}

func TestPlanCapsActionCountAndReportsTruncation(t *testing.T) {
	actions := make([]commerce.PlanAction, 0, 3)
	for i := 0; i < 3; i++ {
		actions = append(actions, commerce.PlanAction{Name: "get_cart", TargetAgent: "cart"})
	}
	client := &fakeClient{enabled: true, plan: &commerce.ActionPlan{Confidence: 0.9, Actions: actions}}
	a := New(client, 2, 0.55)
	plan, truncated, err := a.Plan(context.Background(), "multiple things", nil)
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Len(t, plan.Actions, 2)
	require.Equal(t, 1, truncated)
}

func TestNewClampsMaxActions(t *testing.T) {
	a := New(&fakeClient{enabled: true}, 50, 0.55)
	require.Equal(t, 10, a.maxActions)

	a = New(&fakeClient{enabled: true}, 0, 0.55)
	require.Equal(t, 1, a.maxActions)
}

func TestAllowedActionsCoversEveryAgent(t *testing.T) {
	allowed := AllowedActions()
	for _, agent := range []string{"product", "cart", "order", "memory", "support"} {
		require.NotEmpty(t, allowed[agent], "agent %s should expose at least one allowed action", agent)
	}
}
