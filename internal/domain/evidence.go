package domain

// EvidenceItem is a single retrieved chunk of legal text with its source
// metadata.
type EvidenceItem struct {
	Content         string         `json:"content"`
	DocumentName    string         `json:"document_name"`
	ChunkID         string         `json:"chunk_id,omitempty"`
	SimilarityScore float64        `json:"similarity_score,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// EvidencePack is the result of one internal evidence search.
type EvidencePack struct {
	Query      string         `json:"query"`
	Items      []EvidenceItem `json:"items"`
	TotalItems int            `json:"total_items"`
}
