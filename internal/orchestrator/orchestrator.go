// Package orchestrator implements the conversational core loop: classify
// an incoming message, build per-request agent context, extract (or
// plan) the actions it implies, dispatch them to the owning domain
// agents under one of three execution-semantics paths, and format the
// result. Grounded end-to-end on
// backend/app/orchestrator/orchestrator_core.py.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/goclaw/internal/actions"
	"github.com/nextlevelbuilder/goclaw/internal/agents"
	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/config"
	"github.com/nextlevelbuilder/goclaw/internal/intent"
	"github.com/nextlevelbuilder/goclaw/internal/planner"
	"github.com/nextlevelbuilder/goclaw/internal/session"
)

const recentTurnLimit = 12

// Dependencies bundles everything an Orchestrator needs to process one
// message, so New has one argument instead of a dozen.
type Dependencies struct {
	Classifier *intent.Classifier
	Context    *ContextBuilder
	Planner    *planner.Adapter
	Sessions   *session.Manager
	Memory     commerce.MemoryRepository
	Agents     map[string]agents.Agent
	Config     *config.Config
}

// Orchestrator runs the ProcessMessage pipeline.
type Orchestrator struct {
	classifier *intent.Classifier
	context    *ContextBuilder
	planner    *planner.Adapter
	sessions   *session.Manager
	memory     commerce.MemoryRepository
	agentsMap  map[string]agents.Agent
	cfg        *config.Config

	log            *slog.Logger
	memoryWriteCh  chan memoryWriteJob
}

type memoryWriteJob struct {
	userID   string
	intent   string
	message  string
	response commerce.AgentResponse
}

// New builds an Orchestrator and starts its bounded memory write-back
// worker pool, mirroring orchestrator_core.py's
// asyncio.create_task(self._record_memory(...)) fire-and-forget call —
// a bounded channel is the Go-native replacement for an unbounded task
// fan-out, so a memory-service stall can't pile up unbounded goroutines.
func New(deps Dependencies) *Orchestrator {
	queueSize := 256
	if deps.Config != nil && deps.Config.Orchestrator.MemoryWriteQueueSize > 0 {
		queueSize = deps.Config.Orchestrator.MemoryWriteQueueSize
	}
	o := &Orchestrator{
		classifier:    deps.Classifier,
		context:       deps.Context,
		planner:       deps.Planner,
		sessions:      deps.Sessions,
		memory:        deps.Memory,
		agentsMap:     deps.Agents,
		cfg:           deps.Config,
		log:           slog.Default().With("component", "orchestrator"),
		memoryWriteCh: make(chan memoryWriteJob, queueSize),
	}
	go o.runMemoryWriteWorker()
	return o
}

func (o *Orchestrator) runMemoryWriteWorker() {
	for job := range o.memoryWriteCh {
		recordMemoryWriteback(o.memory, job.userID, job.intent, job.message, job.response)
	}
}

// ProcessMessage runs the full pipeline for one shopper message and
// returns the wire-ready payload, mirroring
// orchestrator_core.py's process_message.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message, sessionID, userID, channel string) commerce.AgentResponse {
	recent := o.recentTurns(sessionID, userID)

	decisionPolicy := o.decisionPolicy()
	plannerEnabledForRequest := o.plannerEnabledForRequest(sessionID, userID)
	allowClassifierLLM := decisionPolicy == "classifier_first" && !plannerEnabledForRequest
	_ = allowClassifierLLM // see DESIGN.md: Classifier.Classify has no allow_llm gate (open-question simplification)

	intentResult := o.classifier.Classify(ctx, message, commerce.ClassifyContext{Recent: recent})

	recentRecords := o.sessions.RecentInteractions(sessionID, recentTurnLimit)
	actx := o.context.Build(sessionID, userID, channel, recentRecords)

	extractedActions := actions.Extract(intentResult)
	routeAgentName := commerce.RouteAgent(intentResult)

	plannerAttempted := false
	var plannerPlan *commerce.ActionPlan
	shouldTryPlanner := plannerEnabledForRequest && (decisionPolicy == "planner_first" || len(extractedActions) > 1)
	if shouldTryPlanner {
		plannerAttempted = true
		plan, _, err := o.planner.Plan(ctx, message, recent)
		if err != nil {
			o.log.Warn("planner attempt failed", "error", err)
		}
		plannerPlan = plan
	}

	actionLimit := o.maxActionsPerRequest()
	actionsToRun, truncatedCount := applyActionLimit(extractedActions, actionLimit)

	plannerUsed := false
	var plannerSteps []map[string]interface{}
	var result commerce.AgentExecutionResult
	var agentName string

	switch {
	case plannerPlan != nil && plannerPlan.NeedsClarification:
		plannerUsed = true
		plannerSteps = []map[string]interface{}{{
			"index": 1, "action": "clarification", "targetAgent": "orchestrator",
			"success": false, "message": plannerPlan.ClarificationQuestion,
		}}
		result = commerce.AgentExecutionResult{
			Success: false,
			Message: plannerPlan.ClarificationQuestion,
			Data:    map[string]interface{}{"code": "CLARIFICATION_REQUIRED"},
		}
		agentName = "orchestrator"

	default:
		if plannerPlan != nil && len(plannerPlan.Actions) > 0 {
			planActions := make([]commerce.AgentAction, 0, len(plannerPlan.Actions))
			for _, a := range plannerPlan.Actions {
				planActions = append(planActions, commerce.AgentAction{Name: a.Name, Params: a.Params, TargetAgent: a.TargetAgent})
			}
			planActions, truncatedCount = applyActionLimit(planActions, actionLimit)
			if len(planActions) > 0 {
				actionsToRun = planActions
				if planActions[0].TargetAgent != "" {
					routeAgentName = planActions[0].TargetAgent
				}
				plannerUsed = true
			}
		}

		switch {
		case plannerUsed && len(actionsToRun) > 0:
			result, agentName, plannerSteps = o.executePlannedActions(ctx, routeAgentName, actionsToRun, actx)
		case len(actionsToRun) == 1:
			action := actionsToRun[0]
			agentName = pickAgent(action, routeAgentName)
			result = o.runAction(ctx, agentName, action, actx)
		default:
			result, agentName = o.executeMultiAction(ctx, routeAgentName, actionsToRun, actx, intentResult.Name)
		}
	}

	response := formatResponse(result, agentName)
	response.Metadata["executionPolicy"] = map[string]interface{}{
		"decisionPolicy":       decisionPolicy,
		"plannerEnabled":       plannerEnabledForRequest,
		"plannerAttempted":     plannerAttempted,
		"mode":                 o.plannerExecutionMode(),
		"maxActions":           actionLimit,
		"truncatedActionCount": truncatedCount,
	}
	if plannerPlan != nil {
		response.Metadata["planner"] = map[string]interface{}{
			"used": plannerUsed, "confidence": plannerPlan.Confidence,
			"needsClarification": plannerPlan.NeedsClarification,
			"actionCount":         len(plannerPlan.Actions),
			"executionMode":       o.plannerExecutionMode(),
			"stepCount":           len(plannerSteps),
			"steps":               plannerSteps,
		}
	} else if plannerAttempted {
		response.Metadata["planner"] = map[string]interface{}{
			"used": false, "confidence": 0.0, "needsClarification": false,
			"actionCount": 0, "executionMode": o.plannerExecutionMode(),
			"stepCount": 0, "steps": []map[string]interface{}{},
		}
	}

	o.sessions.RecordInteraction(sessionID, commerce.InteractionRecord{
		SessionID: sessionID, UserID: actx.UserID, Message: message,
		Intent: intentResult.Name, Agent: agentName, Response: response,
	})
	o.sessions.UpdateConversation(sessionID, intentResult.Name, agentName, message, intentResult.Entities)

	select {
	case o.memoryWriteCh <- memoryWriteJob{userID: actx.UserID, intent: intentResult.Name, message: message, response: response}:
	default:
		o.log.Warn("memory write-back queue full, dropping entry", "userId", actx.UserID)
	}

	return response
}

// recentTurns returns the session's recent turns, falling back to the
// user's saved interaction history when the session itself has none —
// mirroring process_message's recent/_recent_from_memory fallback for a
// returning shopper on a fresh session.
func (o *Orchestrator) recentTurns(sessionID, userID string) []commerce.RecentTurn {
	records := o.sessions.RecentInteractions(sessionID, recentTurnLimit)
	if len(records) > 0 || userID == "" {
		return recentTurnsFromInteractions(records)
	}
	m := o.memory.GetMemory(userID)
	return recentTurnsFromMemory(m, recentTurnLimit)
}

func pickAgent(action commerce.AgentAction, fallback string) string {
	if action.TargetAgent != "" {
		return action.TargetAgent
	}
	return fallback
}

func (o *Orchestrator) runAction(ctx context.Context, agentName string, action commerce.AgentAction, actx commerce.AgentContext) commerce.AgentExecutionResult {
	agent, ok := o.agentsMap[agentName]
	if !ok {
		return commerce.AgentExecutionResult{Success: false, Message: "I don't have an agent available for that yet.", Data: map[string]interface{}{"code": "UNKNOWN_AGENT"}}
	}
	result, err := agent.Execute(ctx, action, actx)
	if err != nil {
		return errorResult(err)
	}
	return result
}

func errorResult(err error) commerce.AgentExecutionResult {
	msg := err.Error()
	data := map[string]interface{}{"code": "ACTION_FAILED"}
	if ce, ok := err.(*commerce.Error); ok {
		data["code"] = string(ce.Kind)
		msg = ce.Message
		if ce.Kind == commerce.ErrClarification {
			data["code"] = "CLARIFICATION_REQUIRED"
			data["options"] = ce.Options
		}
	}
	return commerce.AgentExecutionResult{Success: false, Message: msg, Data: data}
}

func applyActionLimit(list []commerce.AgentAction, limit int) ([]commerce.AgentAction, int) {
	if len(list) <= limit {
		return list, 0
	}
	return list[:limit], len(list) - limit
}

// decisionPolicy reports whether the planner or the classifier leads
// intent resolution, mirroring _decision_policy's config-driven default
// of "planner_first".
func (o *Orchestrator) decisionPolicy() string {
	if o.cfg == nil {
		return "planner_first"
	}
	raw := strings.ToLower(strings.TrimSpace(o.cfg.LLM.DecisionPolicy))
	if raw == "planner_first" || raw == "classifier_first" {
		return raw
	}
	return "planner_first"
}

// plannerExecutionMode reports "atomic" (abort the remaining steps on
// the first failure) or "partial" (run every step regardless),
// mirroring _planner_execution_mode.
func (o *Orchestrator) plannerExecutionMode() string {
	if o.cfg == nil {
		return "partial"
	}
	raw := strings.ToLower(strings.TrimSpace(o.cfg.LLM.PlannerExecutionMode))
	if raw == "strict" || raw == "atomic" {
		return "atomic"
	}
	return "partial"
}

// plannerEnabledForRequest applies the canary bucketing rule:
// deterministic by (userId, sessionId) so a given shopper consistently
// lands on the same side of the rollout, mirroring
// _planner_enabled_for_request's sha256-digest bucketing.
func (o *Orchestrator) plannerEnabledForRequest(sessionID, userID string) bool {
	if o.cfg == nil {
		return false
	}
	if !o.cfg.LLM.PlannerFeatureEnabled || !o.cfg.LLM.PlannerEnabled {
		return false
	}
	percent := o.cfg.LLM.PlannerCanaryPercent
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return canaryBucket(userID, sessionID) < percent
}

func canaryBucket(userID, sessionID string) int {
	uid := userID
	if uid == "" {
		uid = "anonymous"
	}
	sum := sha256.Sum256([]byte(uid + ":" + sessionID))
	digest := hex.EncodeToString(sum[:])
	var n uint32
	for _, c := range digest[:8] {
		n = n*16 + uint32(hexDigit(byte(c)))
	}
	return int(n % 100)
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return 0
	}
}

func (o *Orchestrator) maxActionsPerRequest() int {
	if o.cfg == nil {
		return 5
	}
	n := o.cfg.Orchestrator.MaxActionsPerRequest
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// executePlannedActions runs a planner-produced action list in order,
// mirroring _execute_planned_actions. In atomic mode, the first failure
// skips (and records as skipped) every remaining step; in partial mode
// an agent clarification (CLARIFICATION_REQUIRED) skips the remaining
// steps the same way, any other failure does not stop the run, and the
// combined result flags partialFailure and carries the steps.
func (o *Orchestrator) executePlannedActions(ctx context.Context, routeAgentName string, actionsToRun []commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, string, []map[string]interface{}) {
	atomic := o.plannerExecutionMode() == "atomic"
	combinedData := map[string]interface{}{}
	var messages []string
	var suggested []commerce.NextAction
	var steps []map[string]interface{}
	anySuccess, allSuccess := false, true

	for i, action := range actionsToRun {
		index := i + 1
		agentName := pickAgent(action, routeAgentName)
		result := o.runAction(ctx, agentName, action, actx)

		mergeAgentData(combinedData, agentName, result.Data)
		messages = append(messages, result.Message)
		suggested = append(suggested, result.NextActions...)
		anySuccess = anySuccess || result.Success
		allSuccess = allSuccess && result.Success

		var stepErr map[string]interface{}
		if !result.Success {
			code := "ACTION_FAILED"
			if c, ok := result.Data["code"].(string); ok && c != "" {
				code = c
			}
			stepErr = map[string]interface{}{"code": code, "message": result.Message}
		}
		steps = append(steps, map[string]interface{}{
			"index": index, "action": action.Name, "targetAgent": agentName,
			"success": result.Success, "message": result.Message, "error": stepErr,
		})

		if !result.Success && (atomic || result.Data["code"] == "CLARIFICATION_REQUIRED") {
			for j := i + 1; j < len(actionsToRun); j++ {
				skipped := actionsToRun[j]
				steps = append(steps, map[string]interface{}{
					"index": j + 1, "action": skipped.Name, "targetAgent": pickAgent(skipped, routeAgentName),
					"success": false, "message": "Skipped due to previous failure in atomic mode.",
					"error": map[string]interface{}{"code": "SKIPPED_ATOMIC_MODE", "message": "Skipped due to previous failure in atomic mode."},
				})
			}
			break
		}
	}

	overallSuccess := anySuccess
	if atomic {
		overallSuccess = allSuccess
	}
	if len(messages) == 0 {
		messages = []string{"I couldn't execute the requested action plan."}
	}
	if !allSuccess && !atomic {
		combinedData["partialFailure"] = true
		combinedData["steps"] = steps
	}

	return commerce.AgentExecutionResult{
		Success: overallSuccess, Message: strings.Join(messages, " "),
		Data: combinedData, NextActions: capNextActions(suggested, 6),
	}, "orchestrator", steps
}

// executeMultiAction handles a deterministically-extracted action list
// with more than one step that wasn't planner-driven, mirroring
// _execute_multi_action: the search-and-add intent gets its own
// sequential inference chain, atomic mode runs sequentially and stops
// on first failure, and partial mode fans the remaining actions out
// concurrently via errgroup (the Go-native replacement for
// asyncio.gather).
func (o *Orchestrator) executeMultiAction(ctx context.Context, routeAgentName string, actionsToRun []commerce.AgentAction, actx commerce.AgentContext, intentName string) (commerce.AgentExecutionResult, string) {
	if intentName == "search_and_add_to_cart" {
		return o.executeSearchAddSequence(ctx, routeAgentName, actionsToRun, actx)
	}

	if o.plannerExecutionMode() == "atomic" {
		combinedData := map[string]interface{}{}
		var messages []string
		var suggested []commerce.NextAction
		allSuccess := true
		for _, action := range actionsToRun {
			agentName := pickAgent(action, routeAgentName)
			result := o.runAction(ctx, agentName, action, actx)
			combinedData[agentName] = result.Data
			messages = append(messages, result.Message)
			suggested = append(suggested, result.NextActions...)
			allSuccess = allSuccess && result.Success
			if !result.Success {
				break
			}
		}
		return commerce.AgentExecutionResult{
			Success: allSuccess, Message: strings.Join(messages, " "),
			Data: combinedData, NextActions: capNextActions(suggested, 6),
		}, "orchestrator"
	}

	type pair struct {
		agentName string
		result    commerce.AgentExecutionResult
	}
	pairs := make([]pair, len(actionsToRun))
	g, gctx := errgroup.WithContext(ctx)
	for i, action := range actionsToRun {
		i, action := i, action
		g.Go(func() error {
			agentName := pickAgent(action, routeAgentName)
			pairs[i] = pair{agentName: agentName, result: o.runAction(gctx, agentName, action, actx)}
			return nil
		})
	}
	_ = g.Wait()

	combinedData := map[string]interface{}{}
	var messages []string
	var suggested []commerce.NextAction
	success := true
	for _, p := range pairs {
		combinedData[p.agentName] = p.result.Data
		messages = append(messages, p.result.Message)
		suggested = append(suggested, p.result.NextActions...)
		success = success && p.result.Success
	}

	return commerce.AgentExecutionResult{
		Success: success, Message: strings.Join(messages, " "),
		Data: combinedData, NextActions: capNextActions(suggested, 6),
	}, "orchestrator"
}

// executeSearchAddSequence runs the search-then-add chain, inferring
// the add_item action's productId/variantId from the preceding search
// result when the extractor couldn't resolve them itself — mirroring
// _execute_search_add_sequence / _infer_product_selection.
func (o *Orchestrator) executeSearchAddSequence(ctx context.Context, routeAgentName string, actionsToRun []commerce.AgentAction, actx commerce.AgentContext) (commerce.AgentExecutionResult, string) {
	combinedData := map[string]interface{}{}
	var messages []string
	var suggested []commerce.NextAction
	success := true
	var previous *commerce.AgentExecutionResult

	for _, action := range actionsToRun {
		effective := action
		if action.Name == "add_item" {
			inferred := inferProductSelection(previous)
			params := map[string]interface{}{}
			for k, v := range action.Params {
				params[k] = v
			}
			if _, ok := params["productId"]; !ok {
				if pid, ok := inferred["productId"]; ok {
					params["productId"] = pid
				}
			}
			if _, ok := params["variantId"]; !ok {
				if vid, ok := inferred["variantId"]; ok {
					params["variantId"] = vid
				}
			}
			if _, ok := params["quantity"]; !ok {
				params["quantity"] = 1
			}
			effective = commerce.AgentAction{Name: action.Name, Params: params, TargetAgent: action.TargetAgent}
		}

		agentName := pickAgent(effective, routeAgentName)
		result := o.runAction(ctx, agentName, effective, actx)
		previous = &result

		combinedData[agentName] = result.Data
		messages = append(messages, result.Message)
		suggested = append(suggested, result.NextActions...)
		success = success && result.Success
	}

	return commerce.AgentExecutionResult{
		Success: success, Message: strings.Join(messages, " "),
		Data: combinedData, NextActions: capNextActions(suggested, 6),
	}, "orchestrator"
}

func inferProductSelection(result *commerce.AgentExecutionResult) map[string]string {
	if result == nil {
		return nil
	}
	products, ok := result.Data["products"].([]interface{})
	if !ok || len(products) == 0 {
		return nil
	}
	first, ok := products[0].(map[string]interface{})
	if !ok {
		return nil
	}
	variants, ok := first["variants"].([]interface{})
	if !ok || len(variants) == 0 {
		return nil
	}
	firstVariant, ok := variants[0].(map[string]interface{})
	if !ok {
		return nil
	}
	productID := stringField(first, "id")
	variantID := stringField(firstVariant, "id")
	if productID == "" || variantID == "" {
		return nil
	}
	return map[string]string{"productId": productID, "variantId": variantID}
}

// mergeAgentData folds one agent's result data into the combined map,
// turning a second write from the same agent into a list the way
// _execute_planned_actions does, so a plan that calls the same agent
// twice doesn't silently overwrite its first result.
func mergeAgentData(combined map[string]interface{}, agentName string, data map[string]interface{}) {
	existing, ok := combined[agentName]
	if !ok {
		combined[agentName] = data
		return
	}
	if list, ok := existing.([]map[string]interface{}); ok {
		combined[agentName] = append(list, data)
		return
	}
	if prior, ok := existing.(map[string]interface{}); ok {
		combined[agentName] = []map[string]interface{}{prior, data}
		return
	}
	combined[agentName] = []interface{}{existing, data}
}

func capNextActions(list []commerce.NextAction, max int) []commerce.NextAction {
	if len(list) > max {
		return list[:max]
	}
	return list
}
