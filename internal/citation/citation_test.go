package citation

import (
	"strings"
	"testing"
)

func TestParseVietnameseFullCitation(t *testing.T) {
	c, ok := Parse("Theo Điểm a Khoản 2 Điều 53 Luật số 60/2010/QH12")
	if !ok {
		t.Fatal("expected a citation")
	}
	if c.Point != "a" {
		t.Errorf("point = %q, want a", c.Point)
	}
	if c.Clause != 2 {
		t.Errorf("clause = %d, want 2", c.Clause)
	}
	if c.Article != 53 {
		t.Errorf("article = %d, want 53", c.Article)
	}
	if c.DocumentNumber != "60" || c.Year != 2010 || c.IssuingBody != "QH12" {
		t.Errorf("document = %s/%d/%s, want 60/2010/QH12", c.DocumentNumber, c.Year, c.IssuingBody)
	}
	if c.DocumentType != TypeLaw {
		t.Errorf("type = %s, want Luật", c.DocumentType)
	}
}

func TestParseEnglishCitation(t *testing.T) {
	c, ok := Parse("See Clause 1, Article 28, Law No. 60/2010/QH12")
	if !ok {
		t.Fatal("expected a citation")
	}
	if c.Clause != 1 || c.Article != 28 {
		t.Errorf("clause/article = %d/%d, want 1/28", c.Clause, c.Article)
	}
	if c.DocumentType != TypeLaw {
		t.Errorf("type = %s, want Luật", c.DocumentType)
	}
}

func TestParseDecree(t *testing.T) {
	c, ok := Parse("Điều 12 Nghị định 15/2012/ND-CP")
	if !ok {
		t.Fatal("expected a citation")
	}
	if c.DocumentType != TypeDecree {
		t.Errorf("type = %s, want Nghị định", c.DocumentType)
	}
	if c.Article != 12 {
		t.Errorf("article = %d, want 12", c.Article)
	}
}

func TestParseNoCitation(t *testing.T) {
	if _, ok := Parse("Không có trích dẫn nào trong đoạn văn này."); ok {
		t.Fatal("expected no citation")
	}
}

func TestDetectDocumentType(t *testing.T) {
	cases := []struct {
		docID string
		want  DocumentType
	}{
		{"60/2010/QH12", TypeLaw},
		{"15/2012/ND-CP", TypeDecree},
		{"158/2016/nd-cp", TypeDecree},
		{"20/2021/TT-BTC", TypeCircular},
		{"42/2017/NQ-QH14", TypeLaw}, // QH suffix wins over NQ prefix
		{"garbage", TypeUnknown},
	}
	for _, tc := range cases {
		if got := DetectDocumentType(tc.docID); got != tc.want {
			t.Errorf("DetectDocumentType(%q) = %s, want %s", tc.docID, got, tc.want)
		}
	}
}

func TestVietnameseRendering(t *testing.T) {
	c := Citation{
		DocumentType:   TypeLaw,
		DocumentNumber: "60",
		Year:           2010,
		IssuingBody:    "QH12",
		Article:        53,
		Clause:         2,
	}
	got := c.Vietnamese()
	want := "Khoản 2 Điều 53 Luật số 60/2010/QH12"
	if got != want {
		t.Errorf("Vietnamese() = %q, want %q", got, want)
	}
}

func TestEnglishRendering(t *testing.T) {
	c := Citation{
		DocumentType:   TypeDecree,
		DocumentNumber: "15",
		Year:           2012,
		IssuingBody:    "ND-CP",
		Article:        12,
	}
	got := c.English()
	want := "Article 12, Decree No. 15/2012/ND-CP"
	if got != want {
		t.Errorf("English() = %q, want %q", got, want)
	}
}

func TestExtractAllDeduplicates(t *testing.T) {
	text := "Theo Điều 53 Luật số 60/2010/QH12. " +
		"Như đã nêu, Điều 53 Luật số 60/2010/QH12 quy định rõ. " +
		"Ngoài ra xem Điều 12 Nghị định 15/2012/ND-CP."
	cites := ExtractAll(text)
	if len(cites) != 2 {
		t.Fatalf("got %d citations, want 2: %+v", len(cites), cites)
	}
	if cites[0].Article != 53 || cites[1].Article != 12 {
		t.Errorf("unexpected order: %+v", cites)
	}
}

func TestBibliographyGroupsByType(t *testing.T) {
	cites := []Citation{
		{DocumentType: TypeDecree, DocumentNumber: "15", Year: 2012, IssuingBody: "ND-CP", Article: 12},
		{DocumentType: TypeLaw, DocumentNumber: "60", Year: 2010, IssuingBody: "QH12", Article: 53},
	}
	bib := Bibliography(cites)
	if !strings.HasPrefix(bib, "## References") {
		t.Errorf("missing header: %q", bib)
	}
	lawIdx := strings.Index(bib, "### Luật")
	decreeIdx := strings.Index(bib, "### Nghị định")
	if lawIdx < 0 || decreeIdx < 0 {
		t.Fatalf("missing type sections:\n%s", bib)
	}
	if lawIdx > decreeIdx {
		t.Error("laws should be listed before decrees")
	}
}
