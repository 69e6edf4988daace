package eval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexcouncil/lexcouncil/internal/adapter/llm"
	"github.com/lexcouncil/lexcouncil/internal/agents"
	"github.com/lexcouncil/lexcouncil/internal/domain"
)

func TestLoadBenchmark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmark.json")
	content := `{
		"benchmark_version": "1.0",
		"questions": [
			{
				"id": "Q1",
				"category": "mining_law",
				"difficulty": "basic",
				"query": "Điều kiện cấp giấy phép khai thác khoáng sản?",
				"expected_references": ["60/2010/QH12"]
			}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write benchmark: %v", err)
	}

	b, err := LoadBenchmark(path)
	if err != nil {
		t.Fatalf("LoadBenchmark failed: %v", err)
	}
	if b.BenchmarkVersion != "1.0" {
		t.Errorf("version = %s, want 1.0", b.BenchmarkVersion)
	}
	if len(b.Questions) != 1 || b.Questions[0].ID != "Q1" {
		t.Fatalf("unexpected questions: %+v", b.Questions)
	}
	if len(b.Questions[0].ExpectedReferences) != 1 {
		t.Errorf("expected 1 reference, got %d", len(b.Questions[0].ExpectedReferences))
	}
}

func TestLoadBenchmarkMissingFile(t *testing.T) {
	if _, err := LoadBenchmark(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCheckReferences(t *testing.T) {
	check := checkReferences("Theo Luật số 60/2010/QH12 và các văn bản khác.", []string{"60/2010/QH12", "15/2012/ND-CP"})
	if len(check.Found) != 1 || check.Found[0] != "60/2010/QH12" {
		t.Errorf("found = %v", check.Found)
	}
	if len(check.Missing) != 1 || check.Missing[0] != "15/2012/ND-CP" {
		t.Errorf("missing = %v", check.Missing)
	}
	if check.Score != 0.5 {
		t.Errorf("score = %f, want 0.5", check.Score)
	}
}

func TestCheckReferencesNoExpectations(t *testing.T) {
	check := checkReferences("anything", nil)
	if check.Score != 1.0 {
		t.Errorf("score = %f, want 1.0 with no expectations", check.Score)
	}
}

func TestRunScoresQuestions(t *testing.T) {
	// Scripted so the first question's transcript mentions the expected
	// reference and ends on critic approval.
	client := llm.NewMockClient(
		&domain.CreateResult{Content: "plan", FinishReason: domain.FinishReasonStop},
		&domain.CreateResult{Content: "Evidence from Luật số 60/2010/QH12", FinishReason: domain.FinishReasonStop},
		&domain.CreateResult{Content: "draft", FinishReason: domain.FinishReasonStop},
		&domain.CreateResult{Content: "APPROVE", FinishReason: domain.FinishReasonStop},
	)
	runner := NewRunner(agents.Deps{Client: client}, 8, 1)

	questions := []Question{{
		ID:                 "Q1",
		Category:           "mining_law",
		Query:              "Thẩm quyền cấp phép?",
		ExpectedReferences: []string{"60/2010/QH12"},
	}}
	results := runner.Run(context.Background(), questions)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	r := results[0]
	if !r.Success {
		t.Fatalf("question failed: %s", r.Error)
	}
	if r.MessageCount != 5 {
		t.Errorf("message count = %d, want 5", r.MessageCount)
	}
	if r.References.Score != 1.0 {
		t.Errorf("reference score = %f, want 1.0", r.References.Score)
	}
}

func TestRunRecordsFailures(t *testing.T) {
	runner := NewRunner(agents.Deps{Client: llm.NewErrorClient(errFailed)}, 8, 1)

	results := runner.Run(context.Background(), []Question{{ID: "Q1", Query: "q"}})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(results[0].Error, "model backend down") {
		t.Errorf("error = %q", results[0].Error)
	}
}

var errFailed = errForTest("model backend down")

type errForTest string

func (e errForTest) Error() string { return string(e) }

func TestReportRendersSummary(t *testing.T) {
	benchmark := &Benchmark{BenchmarkVersion: "1.0"}
	results := []Result{
		{
			Question:     Question{ID: "Q1", Category: "mining_law", Query: "q1", Difficulty: "basic"},
			Success:      true,
			MessageCount: 5,
			StopReason:   "mention of 'APPROVE'",
			References:   ReferenceCheck{Found: []string{"60/2010/QH12"}, Score: 1.0},
		},
		{
			Question: Question{ID: "Q2", Category: "mining_law", Query: "q2", Difficulty: "advanced"},
			Error:    "backend unavailable",
		},
	}

	report := Report(benchmark, results)
	for _, want := range []string{
		"**Success Rate:** 1/2",
		"**Avg Reference Score:** 50%",
		"### Q1: mining_law",
		"**Found:** 60/2010/QH12",
		"Failed: backend unavailable",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
