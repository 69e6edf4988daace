// Package team drives bounded multi-agent conversations: role agents over a
// shared model client, a round-robin orchestrator, and composable
// termination conditions.
package team

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/adapter/llm"
	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/policy"
	"github.com/lexcouncil/lexcouncil/internal/tools"
)

// maxToolRounds bounds chained tool round-trips within one turn. One round
// is the expected case; the bound only guards against a model that keeps
// calling tools.
const maxToolRounds = 4

// AgentConfig describes one role agent.
type AgentConfig struct {
	ID           string
	Instruction  string
	Client       llm.ModelClient
	Registry     *tools.Registry
	Capabilities []string
	Policy       *policy.Engine
}

// Agent pairs a fixed role instruction and capability set with the shared
// model client. It is stateless across turns: all conversation state lives
// in the transcript.
type Agent struct {
	id           string
	instruction  string
	client       llm.ModelClient
	registry     *tools.Registry
	capabilities []string
	policy       *policy.Engine
}

// NewAgent creates an agent from its config.
func NewAgent(cfg AgentConfig) *Agent {
	return &Agent{
		id:           cfg.ID,
		instruction:  cfg.Instruction,
		client:       cfg.Client,
		registry:     cfg.Registry,
		capabilities: cfg.Capabilities,
		policy:       cfg.Policy,
	}
}

// ID returns the agent identifier, unique within a team.
func (a *Agent) ID() string {
	return a.id
}

// Respond produces this agent's messages for the next turn. The transcript
// is read-only input; the caller owns appending. Tool calls returned by the
// model are executed in issue order, each producing one tool-result message
// tagged with the call ID, before a follow-up completion yields the final
// assistant message. Capability failures never escape: they become
// tool-result messages the model can react to.
func (a *Agent) Respond(ctx context.Context, transcript []domain.Message) ([]domain.Message, error) {
	request := make([]domain.Message, 0, len(transcript)+1)
	request = append(request, domain.Message{Source: a.id, Role: domain.RoleSystem, Content: a.instruction})
	request = append(request, transcript...)

	var specs []tools.Spec
	if a.registry != nil && len(a.capabilities) > 0 {
		specs = a.registry.Specs(a.capabilities...)
	}

	var produced []domain.Message
	for round := 0; round < maxToolRounds; round++ {
		result, err := a.client.Create(ctx, request, specs)
		if err != nil {
			return nil, err
		}

		if len(result.ToolCalls) == 0 {
			produced = append(produced, domain.Message{Source: a.id, Role: domain.RoleAssistant, Content: result.Content})
			return produced, nil
		}

		// The tool-call assistant message stays in the private request
		// buffer; only tool results and the final answer go to the team.
		request = append(request, domain.Message{
			Source:    a.id,
			Role:      domain.RoleAssistant,
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})

		for _, call := range result.ToolCalls {
			toolMsg := domain.Message{
				Source:   call.Name,
				Role:     domain.RoleTool,
				Content:  a.executeCall(ctx, call),
				CalledID: call.ID,
			}
			produced = append(produced, toolMsg)
			request = append(request, toolMsg)
		}
	}

	// Tool-round budget exhausted: force a final text answer.
	result, err := a.client.Create(ctx, request, nil)
	if err != nil {
		return nil, err
	}
	produced = append(produced, domain.Message{Source: a.id, Role: domain.RoleAssistant, Content: result.Content})
	return produced, nil
}

// executeCall runs one capability and soft-fails: policy blocks, executor
// errors, and panics all become an error description the model sees as the
// tool result.
func (a *Agent) executeCall(ctx context.Context, call domain.ToolCall) (content string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("agent", a.id).Str("tool", call.Name).Any("panic", r).Msg("capability panicked")
			content = fmt.Sprintf("Error: capability %s failed: %v", call.Name, r)
		}
	}()

	if a.policy != nil {
		input := map[string]interface{}{
			"tool_name": call.Name,
			"agent_id":  a.id,
			"args":      rawToMap(call.Arguments),
		}
		decision, reason, err := a.policy.Evaluate(ctx, input)
		if err != nil {
			log.Warn().Err(err).Str("tool", call.Name).Msg("policy evaluation failed")
		} else if decision == policy.DecisionBlock {
			log.Info().Str("agent", a.id).Str("tool", call.Name).Str("reason", reason).Msg("capability blocked by policy")
			return fmt.Sprintf("Error: capability %s blocked by policy", call.Name)
		}
	}

	if a.registry == nil {
		return fmt.Sprintf("Error: capability %s is not available", call.Name)
	}

	raw, err := a.registry.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		capErr := &domain.CapabilityError{Tool: call.Name, Err: err}
		log.Warn().Err(capErr).Str("agent", a.id).Msg("capability execution failed")
		return "Error: " + capErr.Error()
	}
	return string(raw)
}

func rawToMap(raw []byte) map[string]interface{} {
	out := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}
