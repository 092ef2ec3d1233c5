package models

type TextClassificationRequest struct {
	Inputs  string                    `json:"inputs"`
	Options *TextClassificationOption `json:"options,omitempty"`
}

type TextClassificationOption struct {
	WaitForModel bool `json:"wait_for_model"`
}

type TextClassificationScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// The inference API wraps the scores of a single input in an outer array.
type TextClassificationResponse [][]TextClassificationScore

type InferenceErrorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}
