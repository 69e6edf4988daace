package agents

import (
	"strings"
	"testing"

	"github.com/lexcouncil/lexcouncil/internal/adapter/llm"
)

func TestResearchTeamOrder(t *testing.T) {
	roster := ResearchTeam(Deps{Client: llm.NewMockClient()})
	want := []string{PlannerID, RetrieverID, AnalyzerID, CriticID}
	if len(roster) != len(want) {
		t.Fatalf("team size = %d, want %d", len(roster), len(want))
	}
	for i, agent := range roster {
		if agent.ID() != want[i] {
			t.Errorf("position %d = %s, want %s", i, agent.ID(), want[i])
		}
	}
}

func TestResearchTeamWithSearcherOrder(t *testing.T) {
	roster := ResearchTeamWithSearcher(Deps{Client: llm.NewMockClient()})
	want := []string{PlannerID, RetrieverID, SearcherID, AnalyzerID, CriticID}
	if len(roster) != len(want) {
		t.Fatalf("team size = %d, want %d", len(roster), len(want))
	}
	for i, agent := range roster {
		if agent.ID() != want[i] {
			t.Errorf("position %d = %s, want %s", i, agent.ID(), want[i])
		}
	}
}

func TestInstructionsMentionApprovalKeyword(t *testing.T) {
	// The critic ends research by saying the keyword; its instruction must
	// spell it out, and no other role should be told to say it.
	if !strings.Contains(criticInstruction, ApprovalKeyword) {
		t.Error("critic instruction does not mention the approval keyword")
	}
	for name, instruction := range map[string]string{
		"planner":   plannerInstruction,
		"retriever": retrieverInstruction,
		"analyzer":  analyzerInstruction,
		"searcher":  searcherInstruction,
	} {
		if strings.Contains(instruction, ApprovalKeyword) {
			t.Errorf("%s instruction mentions the approval keyword", name)
		}
	}
}
