package models

// ProcessRequest is one "Process" click: a batch of remote URLs and local uploads.
type ProcessRequest struct {
	RemoteURLs []string `json:"remote_urls"`
	Uploads    []Upload `json:"uploads"`
}

// ProcessResult reports the outcome of a processing run. FailedURLs and FailedUploads are
// filled even when the run itself fails.
type ProcessResult struct {
	FailedURLs    []FailureRecord `json:"failed_urls"`
	FailedUploads []FailureRecord `json:"failed_uploads"`
	Ready         bool            `json:"ready"`
	Reason        string          `json:"reason,omitempty"`
	Chunks        int             `json:"chunks"`
	CorpusBytes   int             `json:"corpus_bytes"`
}

// AskRequest is a question submitted to a session.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the answer together with the full updated history.
type AskResponse struct {
	Answer  string        `json:"answer"`
	History History       `json:"history"`
	Sources []ScoredChunk `json:"sources,omitempty"`
}
