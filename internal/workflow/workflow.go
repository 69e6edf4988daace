// Package workflow drives the two-phase legal research pipeline: a
// research/critique conversation followed by a synthesis pass over its
// approved transcript.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/agents"
	"github.com/lexcouncil/lexcouncil/internal/citation"
	"github.com/lexcouncil/lexcouncil/internal/domain"
	"github.com/lexcouncil/lexcouncil/internal/hub"
	"github.com/lexcouncil/lexcouncil/internal/store"
	"github.com/lexcouncil/lexcouncil/internal/team"
	"github.com/lexcouncil/lexcouncil/internal/validity"
)

// Options bound the two conversation phases and select optional steps.
type Options struct {
	// ResearchMaxMessages caps phase-1 messages appended after the seed.
	ResearchMaxMessages int

	// SynthesisMaxMessages caps phase-2 messages appended after the seed.
	SynthesisMaxMessages int

	// IncludeSearcher adds the web verification agent to the research team.
	IncludeSearcher bool
}

// Output is the result of one full workflow execution.
type Output struct {
	RunID     string
	Status    domain.RunStatus
	Research  *domain.Transcript
	Synthesis *domain.Transcript
	Report    string
}

// Workflow wires the agent teams to persistence and live streaming. Safe
// for concurrent Run calls: each run builds fresh teams and conditions.
type Workflow struct {
	deps    agents.Deps
	opts    Options
	store   store.Store
	hub     *hub.Hub
	checker *validity.Checker
}

// New creates a workflow. Store, hub and checker are optional; a nil store
// disables persistence, a nil hub disables streaming, a nil checker skips
// the validity appendix.
func New(deps agents.Deps, opts Options, st store.Store, h *hub.Hub, checker *validity.Checker) *Workflow {
	if opts.ResearchMaxMessages <= 0 {
		opts.ResearchMaxMessages = 11
	}
	if opts.SynthesisMaxMessages <= 0 {
		opts.SynthesisMaxMessages = 1
	}
	return &Workflow{deps: deps, opts: opts, store: st, hub: h, checker: checker}
}

// Run executes both phases for one query and returns the final report.
// A cancelled context stops the active phase and records the run as STOPPED.
func (w *Workflow) Run(ctx context.Context, query string) (*Output, error) {
	return w.RunWithID(ctx, uuid.NewString(), query)
}

// RunWithID is Run with a caller-supplied run ID, for callers that must
// hand out the ID before the run finishes.
func (w *Workflow) RunWithID(ctx context.Context, runID, query string) (*Output, error) {
	out := &Output{RunID: runID, Status: domain.RunStatusRunning}

	if w.store != nil {
		run := &domain.Run{RunID: runID, Query: query, Status: domain.RunStatusRunning, StartedAt: time.Now()}
		if err := w.store.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("creating run: %w", err)
		}
	}
	log.Info().Str("run_id", runID).Str("query", query).Msg("workflow started")

	// Phase 1: research and critique.
	roster := agents.ResearchTeam(w.deps)
	if w.opts.IncludeSearcher {
		roster = agents.ResearchTeamWithSearcher(w.deps)
	}
	researchCondition := team.Or(
		team.TextMention(agents.ApprovalKeyword),
		team.MaxMessages(w.opts.ResearchMaxMessages),
	)
	researchTeam, err := team.NewRoundRobinTeam(roster, researchCondition)
	if err != nil {
		return nil, err
	}
	researchTeam.SetObserver(w.observer(runID, domain.PhaseResearch))

	task := fmt.Sprintf("Legal Query: %s\nPlease plan and execute the research.", query)
	researchResult, err := researchTeam.Run(ctx, task)
	if err != nil {
		w.finish(runID, domain.RunStatusFailed, err.Error())
		return nil, fmt.Errorf("research phase: %w", err)
	}
	out.Research = researchResult.Transcript
	if researchResult.Status == team.StatusStopped {
		out.Status = domain.RunStatusStopped
		w.finish(runID, domain.RunStatusStopped, researchResult.StopReason)
		return out, nil
	}
	log.Info().Str("run_id", runID).Str("stop_reason", researchResult.StopReason).Msg("research phase completed")

	// Phase 2: synthesis, seeded with the full research transcript.
	synthesisCondition := team.MaxMessages(w.opts.SynthesisMaxMessages)
	synthesisTeam, err := team.NewRoundRobinTeam([]*team.Agent{agents.NewSynthesizer(w.deps)}, synthesisCondition)
	if err != nil {
		return nil, err
	}
	synthesisTeam.SetObserver(w.observer(runID, domain.PhaseSynthesis))

	synthesisTask := synthesisSeed(query, researchResult.Transcript)
	synthesisResult, err := synthesisTeam.Run(ctx, synthesisTask)
	if err != nil {
		w.finish(runID, domain.RunStatusFailed, err.Error())
		return nil, fmt.Errorf("synthesis phase: %w", err)
	}
	out.Synthesis = synthesisResult.Transcript
	if synthesisResult.Status == team.StatusStopped {
		out.Status = domain.RunStatusStopped
		w.finish(runID, domain.RunStatusStopped, synthesisResult.StopReason)
		return out, nil
	}

	out.Report = w.finalReport(ctx, synthesisResult.Transcript)
	out.Status = domain.RunStatusCompleted
	w.finish(runID, domain.RunStatusCompleted, "")
	log.Info().Str("run_id", runID).Int("report_bytes", len(out.Report)).Msg("workflow completed")
	return out, nil
}

// observer persists and streams each appended message. Persistence errors
// are logged, not fatal: the conversation carries the authoritative state.
func (w *Workflow) observer(runID string, phase domain.Phase) team.Observer {
	seq := 0
	return func(msg domain.Message) {
		seq++
		if w.store != nil {
			stored := &domain.StoredMessage{
				MessageID: "msg_" + uuid.New().String()[:8],
				RunID:     runID,
				Phase:     phase,
				Seq:       seq,
				Source:    msg.Source,
				Role:      msg.Role,
				Content:   msg.Content,
				CalledID:  msg.CalledID,
				CreatedAt: time.Now(),
			}
			if err := w.store.AppendMessage(context.Background(), stored); err != nil {
				log.Error().Err(err).Str("run_id", runID).Msg("failed to persist message")
			}
		}
		if w.hub != nil {
			w.hub.Publish(hub.Event{
				Type:    hub.EventMessage,
				RunID:   runID,
				Phase:   string(phase),
				Source:  msg.Source,
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		}
	}
}

func (w *Workflow) finish(runID string, status domain.RunStatus, reason string) {
	if w.store != nil {
		if err := w.store.UpdateRunCompleted(context.Background(), runID, status, reason); err != nil {
			log.Error().Err(err).Str("run_id", runID).Msg("failed to finalize run")
		}
	}
	if w.hub != nil {
		w.hub.Publish(hub.Event{Type: hub.EventStatus, RunID: runID, Status: string(status), Reason: reason})
	}
}

// finalReport extracts the synthesizer's answer and appends the citation
// bibliography and document validity sections.
func (w *Workflow) finalReport(ctx context.Context, transcript *domain.Transcript) string {
	report := lastAssistantContent(transcript)
	if report == "" {
		return ""
	}

	if cites := citation.ExtractAll(report); len(cites) > 0 {
		report += "\n\n" + citation.Bibliography(cites)
	}
	if w.checker != nil {
		if records := w.checker.CheckAll(ctx, report); len(records) > 0 {
			report += "\n\n" + validity.Report(records)
		}
	}
	return report
}

func lastAssistantContent(transcript *domain.Transcript) string {
	msgs := transcript.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			return msgs[i].Content
		}
	}
	return ""
}

// synthesisSeed renders the research transcript into the phase-2 task.
func synthesisSeed(query string, research *domain.Transcript) string {
	var b strings.Builder
	b.WriteString("Based on the approved research below, produce the final legal research document.\n\n")
	b.WriteString("Original Query: ")
	b.WriteString(query)
	b.WriteString("\n\n--- Research Transcript ---\n")
	for _, msg := range research.Messages() {
		b.WriteString(fmt.Sprintf("[%s] %s\n", msg.Source, msg.Content))
	}
	b.WriteString("--- End Transcript ---\n\n")
	b.WriteString("Please synthesize a comprehensive, well-formatted legal brief with proper citations.")
	return b.String()
}
