package models

// Chunk is an ordered segment of the corpus. Start and End are byte offsets into the corpus
// the chunk was cut from; adjacent chunks may overlap but never leave gaps.
type Chunk struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ScoredChunk is a retrieval hit. Higher scores are more similar.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
