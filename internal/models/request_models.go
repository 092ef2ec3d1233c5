package models

// AnalyzeRequest is the JSON body accepted by POST /api/analyze and by the
// request topic worker. Reviews may hold any JSON scalar.
type AnalyzeRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Text      string `json:"text"`
	Reviews   []any  `json:"reviews"`
}
