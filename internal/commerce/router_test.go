package commerce

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouteAgentKnownIntents(t *testing.T) {
	cases := map[string]string{
		"product_search": "product",
		"add_to_cart":    "cart",
		"checkout":       "order",
		"show_memory":    "memory",
		"support_status": "support",
	}
	for intentName, want := range cases {
		require.Equal(t, want, RouteAgent(IntentResult{Name: intentName}))
	}
}

func TestRouteAgentFallsBackToSupport(t *testing.T) {
	require.Equal(t, "support", RouteAgent(IntentResult{Name: "general_question"}))
	require.Equal(t, "support", RouteAgent(IntentResult{Name: "unrecognized_intent"}))
}
