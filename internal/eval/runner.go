// Package eval runs benchmark questions through the research pipeline and
// scores the transcripts against expected legal references.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/agents"
	"github.com/lexcouncil/lexcouncil/internal/team"
)

// Question is one benchmark entry.
type Question struct {
	ID                 string   `json:"id"`
	Category           string   `json:"category"`
	Difficulty         string   `json:"difficulty"`
	Query              string   `json:"query"`
	ExpectedReferences []string `json:"expected_references"`
}

// Benchmark is a versioned question set.
type Benchmark struct {
	BenchmarkVersion string     `json:"benchmark_version"`
	Questions        []Question `json:"questions"`
}

// LoadBenchmark reads a benchmark question set from a JSON file.
func LoadBenchmark(path string) (*Benchmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading benchmark: %w", err)
	}
	var b Benchmark
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing benchmark: %w", err)
	}
	return &b, nil
}

// ReferenceCheck scores how many expected references a transcript contains.
type ReferenceCheck struct {
	Found   []string
	Missing []string
	Score   float64
}

// Result is the outcome of evaluating one question.
type Result struct {
	Question     Question
	Success      bool
	Error        string
	MessageCount int
	StopReason   string
	References   ReferenceCheck
}

// Runner evaluates benchmark questions over isolated research teams.
type Runner struct {
	deps        agents.Deps
	maxMessages int
	concurrency int
}

// NewRunner creates a runner. maxMessages bounds each question's research
// conversation; concurrency caps parallel question evaluation.
func NewRunner(deps agents.Deps, maxMessages, concurrency int) *Runner {
	if maxMessages <= 0 {
		maxMessages = 8
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{deps: deps, maxMessages: maxMessages, concurrency: concurrency}
}

// Run evaluates the questions and returns results in question order. Each
// question gets a fresh team so conditions and transcripts stay isolated.
func (r *Runner) Run(ctx context.Context, questions []Question) []Result {
	results := make([]Result, len(questions))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, q := range questions {
		wg.Add(1)
		go func(i int, q Question) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			log.Info().Str("question_id", q.ID).Str("category", q.Category).Msg("evaluating question")
			results[i] = r.runOne(ctx, q)
		}(i, q)
	}
	wg.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, q Question) Result {
	result := Result{Question: q}

	condition := team.Or(team.TextMention(agents.ApprovalKeyword), team.MaxMessages(r.maxMessages))
	researchTeam, err := team.NewRoundRobinTeam(agents.ResearchTeam(r.deps), condition)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	task := fmt.Sprintf("Legal Query: %s\nPlease plan and execute the research.", q.Query)
	teamResult, err := researchTeam.Run(ctx, task)
	if err != nil {
		result.Error = err.Error()
		if teamResult != nil {
			result.MessageCount = teamResult.Transcript.Len()
		}
		return result
	}

	result.Success = true
	result.StopReason = teamResult.StopReason
	result.MessageCount = teamResult.Transcript.Len()

	var all strings.Builder
	for _, msg := range teamResult.Transcript.Messages() {
		all.WriteString(msg.Content)
		all.WriteString(" ")
	}
	result.References = checkReferences(all.String(), q.ExpectedReferences)
	return result
}

func checkReferences(content string, expected []string) ReferenceCheck {
	check := ReferenceCheck{Score: 1.0}
	if len(expected) == 0 {
		return check
	}
	for _, ref := range expected {
		if strings.Contains(content, ref) {
			check.Found = append(check.Found, ref)
		} else {
			check.Missing = append(check.Missing, ref)
		}
	}
	check.Score = float64(len(check.Found)) / float64(len(expected))
	return check
}

// Report renders evaluation results as a markdown document.
func Report(benchmark *Benchmark, results []Result) string {
	var b strings.Builder
	b.WriteString("# Legal Research System Evaluation Report\n\n")
	b.WriteString(fmt.Sprintf("**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**Benchmark Version:** %s\n", benchmark.BenchmarkVersion))
	b.WriteString(fmt.Sprintf("**Questions Evaluated:** %d\n\n", len(results)))

	successful := 0
	totalScore := 0.0
	for _, r := range results {
		if r.Success {
			successful++
		}
		totalScore += r.References.Score
	}
	avgScore := 0.0
	if len(results) > 0 {
		avgScore = totalScore / float64(len(results))
	}

	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("- **Success Rate:** %d/%d\n", successful, len(results)))
	b.WriteString(fmt.Sprintf("- **Avg Reference Score:** %.0f%%\n\n", avgScore*100))

	b.WriteString("## Detailed Results\n\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("### %s: %s\n", r.Question.ID, r.Question.Category))
		b.WriteString(fmt.Sprintf("**Query:** %s\n", r.Question.Query))
		b.WriteString(fmt.Sprintf("**Difficulty:** %s\n\n", r.Question.Difficulty))

		if r.Success {
			b.WriteString(fmt.Sprintf("- Completed with %d messages (%s)\n", r.MessageCount, r.StopReason))
			b.WriteString(fmt.Sprintf("- **Reference Score:** %.0f%%\n", r.References.Score*100))
			b.WriteString(fmt.Sprintf("- **Found:** %s\n", joinOrNone(r.References.Found)))
			b.WriteString(fmt.Sprintf("- **Missing:** %s\n", joinOrNone(r.References.Missing)))
		} else {
			b.WriteString(fmt.Sprintf("- Failed: %s\n", r.Error))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func joinOrNone(refs []string) string {
	if len(refs) == 0 {
		return "None"
	}
	return strings.Join(refs, ", ")
}
