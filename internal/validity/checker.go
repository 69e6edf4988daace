// Package validity checks whether Vietnamese legal documents are still in
// force, combining a known supersession table with live web lookups.
package validity

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lexcouncil/lexcouncil/internal/tools"
)

// Status represents the current legal force of a document.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusSuperseded Status = "SUPERSEDED"
	StatusUnknown    Status = "UNKNOWN"
)

// Record describes what is known about a document's validity.
type Record struct {
	DocumentID   string
	Status       Status
	EffectiveEnd string
	ReplacedBy   string
	Note         string
}

var docIDPattern = regexp.MustCompile(`(?i)\d+/\d{4}/(?:QH\d+|N[DĐđ]-CP|TT-[A-Za-z]+|NQ-[A-Za-z0-9]+|Q[DĐđ]-[A-Za-z]+|CT-[A-Za-z]+)`)

// ExtractDocumentIDs finds all legal document identifiers in a text,
// in order of first appearance, deduplicated.
func ExtractDocumentIDs(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, id := range docIDPattern.FindAllString(text, -1) {
		// Both NĐ-CP and ND-CP spellings appear in the wild; canonicalize
		// to the ASCII form used by the supersession table.
		id = strings.ReplaceAll(strings.ToUpper(id), "Đ", "D")
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// knownRecords covers frequently cited documents where supersession is
// settled. Web lookup fills the gaps for anything not listed.
var knownRecords = map[string]Record{
	"60/2010/QH12": {
		DocumentID: "60/2010/QH12",
		Status:     StatusActive,
		Note:       "Luật Khoáng sản 2010, thay thế Luật Khoáng sản 1996 (sửa đổi 2005)",
	},
	"47/2005/QH11": {
		DocumentID:   "47/2005/QH11",
		Status:       StatusExpired,
		EffectiveEnd: "2011-06-30",
		ReplacedBy:   "60/2010/QH12",
		Note:         "Hết hiệu lực khi Luật Khoáng sản 2010 có hiệu lực",
	},
	"15/2012/ND-CP": {
		DocumentID: "15/2012/ND-CP",
		Status:     StatusSuperseded,
		ReplacedBy: "158/2016/ND-CP",
		Note:       "Nghị định hướng dẫn Luật Khoáng sản, đã được thay thế",
	},
	"40/2019/ND-CP": {
		DocumentID: "40/2019/ND-CP",
		Status:     StatusActive,
		Note:       "Nghị định sửa đổi các nghị định hướng dẫn Luật Bảo vệ môi trường",
	},
}

// Checker resolves document validity. A nil searcher disables web lookup.
type Checker struct {
	searcher *tools.ValiditySearcher
}

// NewChecker builds a Checker backed by the given web searcher.
func NewChecker(searcher *tools.ValiditySearcher) *Checker {
	return &Checker{searcher: searcher}
}

// Check resolves the validity of one document ID. Known records answer
// immediately; everything else falls through to a web search whose digest
// is attached as a note with status UNKNOWN.
func (c *Checker) Check(ctx context.Context, docID string) Record {
	docID = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(docID)), "Đ", "D")
	if rec, ok := knownRecords[docID]; ok {
		return rec
	}

	rec := Record{DocumentID: docID, Status: StatusUnknown}
	if c.searcher != nil {
		rec.Note = c.searcher.Search(ctx, docID)
		applyDigestHeuristics(&rec)
	}
	return rec
}

// applyDigestHeuristics upgrades an UNKNOWN record from the phrases
// Vietnamese legal sites use for document status. The digest stays attached
// as the note either way.
func applyDigestHeuristics(rec *Record) {
	digest := strings.ToLower(rec.Note)
	switch {
	case strings.Contains(digest, "hết hiệu lực"):
		rec.Status = StatusExpired
	case strings.Contains(digest, "thay thế") || strings.Contains(digest, "bị thay thế"):
		rec.Status = StatusSuperseded
	case strings.Contains(digest, "còn hiệu lực"):
		rec.Status = StatusActive
	default:
		return
	}

	if rec.Status == StatusExpired || rec.Status == StatusSuperseded {
		for _, id := range ExtractDocumentIDs(rec.Note) {
			if id != rec.DocumentID {
				rec.ReplacedBy = id
				break
			}
		}
	}
}

// CheckAll resolves every document ID referenced in a text.
func (c *Checker) CheckAll(ctx context.Context, text string) []Record {
	ids := ExtractDocumentIDs(text)
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Check(ctx, id))
	}
	return out
}

// Report renders validity records as a markdown section.
func Report(records []Record) string {
	if len(records) == 0 {
		return ""
	}
	lines := []string{"## Document Validity", ""}
	for _, r := range records {
		line := fmt.Sprintf("- **%s**: %s", r.DocumentID, r.Status)
		if r.ReplacedBy != "" {
			line += fmt.Sprintf(" (thay thế bởi %s)", r.ReplacedBy)
		}
		if r.EffectiveEnd != "" {
			line += fmt.Sprintf(", hết hiệu lực %s", r.EffectiveEnd)
		}
		if r.Note != "" {
			line += ". " + r.Note
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
