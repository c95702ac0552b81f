package orchestrator

import "github.com/nextlevelbuilder/goclaw/internal/commerce"

// formatResponse turns one agent's (or the multi-action executor's)
// result into the orchestrator's wire-level AgentResponse, mirroring
// response_formatter.py's single field-mapping responsibility — no
// standalone response_formatter.py shipped in the source pack, so this
// is reconstructed directly from orchestrator_core.py's call site.
func formatResponse(result commerce.AgentExecutionResult, agentName string) commerce.AgentResponse {
	return commerce.AgentResponse{
		Message:          result.Message,
		Agent:            agentName,
		Success:          result.Success,
		Data:             result.Data,
		SuggestedActions: result.NextActions,
		Metadata:         map[string]interface{}{},
	}
}
