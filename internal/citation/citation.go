// Package citation parses and formats Vietnamese legal citations.
package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DocumentType classifies Vietnamese legal documents.
type DocumentType string

const (
	TypeLaw        DocumentType = "Luật"
	TypeDecree     DocumentType = "Nghị định"
	TypeCircular   DocumentType = "Thông tư"
	TypeResolution DocumentType = "Nghị quyết"
	TypeDecision   DocumentType = "Quyết định"
	TypeDirective  DocumentType = "Chỉ thị"
	TypeUnknown    DocumentType = "Unknown"
)

// Citation is a structured legal reference such as
// "Khoản 1 Điều 53 Luật số 60/2010/QH12".
type Citation struct {
	DocumentType   DocumentType
	DocumentNumber string
	Year           int
	IssuingBody    string
	Article        int
	Clause         int
	Point          string
	DocumentTitle  string
}

// Vietnamese renders the citation in Vietnamese style.
func (c Citation) Vietnamese() string {
	var parts []string
	if c.Point != "" {
		parts = append(parts, "Điểm "+c.Point)
	}
	if c.Clause > 0 {
		parts = append(parts, fmt.Sprintf("Khoản %d", c.Clause))
	}
	if c.Article > 0 {
		parts = append(parts, fmt.Sprintf("Điều %d", c.Article))
	}
	parts = append(parts, fmt.Sprintf("%s số %s/%d/%s", c.DocumentType, c.DocumentNumber, c.Year, c.IssuingBody))
	if c.DocumentTitle != "" {
		parts = append(parts, "("+c.DocumentTitle+")")
	}
	return strings.Join(parts, " ")
}

// English renders the citation in English style.
func (c Citation) English() string {
	typeMap := map[DocumentType]string{
		TypeLaw:        "Law",
		TypeDecree:     "Decree",
		TypeCircular:   "Circular",
		TypeResolution: "Resolution",
		TypeDecision:   "Decision",
		TypeDirective:  "Directive",
		TypeUnknown:    "Document",
	}

	var parts []string
	if c.Point != "" {
		parts = append(parts, "Point "+c.Point)
	}
	if c.Clause > 0 {
		parts = append(parts, fmt.Sprintf("Clause %d", c.Clause))
	}
	if c.Article > 0 {
		parts = append(parts, fmt.Sprintf("Article %d", c.Article))
	}
	docType := typeMap[c.DocumentType]
	if docType == "" {
		docType = "Document"
	}
	parts = append(parts, fmt.Sprintf("%s No. %s/%d/%s", docType, c.DocumentNumber, c.Year, c.IssuingBody))
	if c.DocumentTitle != "" {
		parts = append(parts, "("+c.DocumentTitle+")")
	}
	return strings.Join(parts, ", ")
}

// DetectDocumentType infers the type from a document ID suffix such as
// "60/2010/QH12" or "15/2012/ND-CP".
func DetectDocumentType(docID string) DocumentType {
	upper := strings.ToUpper(docID)
	switch {
	case strings.Contains(upper, "QH"):
		return TypeLaw
	case strings.Contains(upper, "ND-CP") || strings.Contains(upper, "NĐ-CP"):
		return TypeDecree
	case strings.Contains(upper, "TT-"):
		return TypeCircular
	case strings.Contains(upper, "NQ-"):
		return TypeResolution
	case strings.Contains(upper, "QD-") || strings.Contains(upper, "QĐ-"):
		return TypeDecision
	case strings.Contains(upper, "CT-"):
		return TypeDirective
	default:
		return TypeUnknown
	}
}

var (
	vnPattern = regexp.MustCompile(`(?i)(?:Điểm\s+([a-z]))?[\s,]*(?:Khoản\s+(\d+))?[\s,]*(?:Điều\s+(\d+))?[\s,]*(?:Luật|Nghị định|Thông tư)\s+(?:số\s+)?(\d+)/(\d{4})/([A-Za-z\-]+\d*)`)
	enPattern = regexp.MustCompile(`(?i)(?:Point\s+([a-z]))?[\s,]*(?:Clause\s+(\d+))?[\s,]*(?:Article\s+(\d+))?[\s,]*(?:Law|Decree|Circular)\s+(?:No\.\s*)?(\d+)/(\d{4})/([A-Za-z\-]+\d*)`)

	referencePattern = regexp.MustCompile(`(?i)(?:Điều|Article)\s+\d+[^.]*?(?:Luật|Law|Nghị định|Decree)[^.]*?\d+/\d{4}/[A-Za-z\-]+\d*`)
)

// Parse extracts a structured citation from free text. Supports both
// Vietnamese ("Điều 28, Luật số 60/2010/QH12") and English
// ("Article 28, Law No. 60/2010/QH12") styles.
func Parse(text string) (Citation, bool) {
	for _, pattern := range []*regexp.Regexp{vnPattern, enPattern} {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		year, err := strconv.Atoi(match[5])
		if err != nil {
			continue
		}

		c := Citation{
			Point:          strings.ToLower(match[1]),
			DocumentNumber: match[4],
			Year:           year,
			IssuingBody:    strings.ToUpper(match[6]),
		}
		if match[2] != "" {
			c.Clause, _ = strconv.Atoi(match[2])
		}
		if match[3] != "" {
			c.Article, _ = strconv.Atoi(match[3])
		}
		c.DocumentType = DetectDocumentType(fmt.Sprintf("%s/%d/%s", c.DocumentNumber, c.Year, c.IssuingBody))
		return c, true
	}
	return Citation{}, false
}

// ExtractAll parses every citation found in a block of text, deduplicated
// by document ID and position of first appearance.
func ExtractAll(text string) []Citation {
	var out []Citation
	seen := map[string]bool{}
	for _, match := range referencePattern.FindAllString(text, -1) {
		c, ok := Parse(match)
		if !ok {
			continue
		}
		key := fmt.Sprintf("%s/%d/%s|%d|%d|%s", c.DocumentNumber, c.Year, c.IssuingBody, c.Article, c.Clause, c.Point)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// Bibliography renders a grouped reference section from citations, ordered
// by document type, then year and number.
func Bibliography(citations []Citation) string {
	byType := map[DocumentType][]Citation{}
	for _, c := range citations {
		byType[c.DocumentType] = append(byType[c.DocumentType], c)
	}

	lines := []string{"## References", ""}
	order := []DocumentType{TypeLaw, TypeDecree, TypeCircular, TypeResolution, TypeDecision, TypeDirective, TypeUnknown}
	for _, docType := range order {
		group := byType[docType]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].Year != group[j].Year {
				return group[i].Year < group[j].Year
			}
			return group[i].DocumentNumber < group[j].DocumentNumber
		})
		lines = append(lines, "### "+string(docType))
		for _, c := range group {
			lines = append(lines, "- "+c.Vietnamese())
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
