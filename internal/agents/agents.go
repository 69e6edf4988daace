// Package agents builds the role-specialized agents of the legal research
// team. Each constructor binds a fixed instruction, and for the retriever
// and searcher a capability, to the shared model client.
package agents

import (
	"github.com/lexcouncil/lexcouncil/internal/adapter/llm"
	"github.com/lexcouncil/lexcouncil/internal/policy"
	"github.com/lexcouncil/lexcouncil/internal/team"
	"github.com/lexcouncil/lexcouncil/internal/tools"
)

// Agent identifiers, unique within a team and referenced by the
// capability policy.
const (
	PlannerID     = "planner"
	RetrieverID   = "retriever"
	AnalyzerID    = "analyzer"
	CriticID      = "critic"
	SearcherID    = "searcher"
	SynthesizerID = "synthesizer"
)

// ApprovalKeyword is the critic's verdict that ends the research phase.
const ApprovalKeyword = "APPROVE"

// Deps carries the shared collaborators every role agent is built from.
type Deps struct {
	Client   llm.ModelClient
	Registry *tools.Registry
	Policy   *policy.Engine
}

// NewPlanner decomposes the user query into researchable sub-questions and
// assigns them to the retriever and searcher.
func NewPlanner(d Deps) *team.Agent {
	return team.NewAgent(team.AgentConfig{
		ID:          PlannerID,
		Instruction: plannerInstruction,
		Client:      d.Client,
	})
}

// NewRetriever fetches legal evidence from the internal database. It is the
// only agent bound to the evidence search capability.
func NewRetriever(d Deps) *team.Agent {
	return team.NewAgent(team.AgentConfig{
		ID:           RetrieverID,
		Instruction:  retrieverInstruction,
		Client:       d.Client,
		Registry:     d.Registry,
		Capabilities: []string{tools.EvidenceSearchName},
		Policy:       d.Policy,
	})
}

// NewAnalyzer synthesizes retrieved evidence into a structured draft answer
// with strict citations.
func NewAnalyzer(d Deps) *team.Agent {
	return team.NewAgent(team.AgentConfig{
		ID:          AnalyzerID,
		Instruction: analyzerInstruction,
		Client:      d.Client,
	})
}

// NewCritic reviews the draft and either approves it or returns concrete
// critiques for another round.
func NewCritic(d Deps) *team.Agent {
	return team.NewAgent(team.AgentConfig{
		ID:          CriticID,
		Instruction: criticInstruction,
		Client:      d.Client,
	})
}

// NewSearcher verifies document validity against the public web. It is the
// only agent bound to the validity search capability.
func NewSearcher(d Deps) *team.Agent {
	return team.NewAgent(team.AgentConfig{
		ID:           SearcherID,
		Instruction:  searcherInstruction,
		Client:       d.Client,
		Registry:     d.Registry,
		Capabilities: []string{tools.ValiditySearchName},
		Policy:       d.Policy,
	})
}

// NewSynthesizer produces the final polished legal document from the
// approved research.
func NewSynthesizer(d Deps) *team.Agent {
	return team.NewAgent(team.AgentConfig{
		ID:          SynthesizerID,
		Instruction: synthesizerInstruction,
		Client:      d.Client,
	})
}

// ResearchTeam returns the phase-1 agents in their fixed turn order.
func ResearchTeam(d Deps) []*team.Agent {
	return []*team.Agent{NewPlanner(d), NewRetriever(d), NewAnalyzer(d), NewCritic(d)}
}

// ResearchTeamWithSearcher extends the research team with live web
// verification of document validity, inserted after retrieval.
func ResearchTeamWithSearcher(d Deps) []*team.Agent {
	return []*team.Agent{NewPlanner(d), NewRetriever(d), NewSearcher(d), NewAnalyzer(d), NewCritic(d)}
}
