package models

type SourceKind string

const (
	SourceFreeText    SourceKind = "free_text"
	SourceSpreadsheet SourceKind = "spreadsheet"
	SourceAPI         SourceKind = "api"
)

// ReviewItem is one unit of input text. Non-text cell values are converted
// to their text form before an item is built.
type ReviewItem struct {
	RawValue   string     `json:"raw_value"`
	SourceKind SourceKind `json:"source_kind"`
}

func NewReviewItem(text string, source SourceKind) ReviewItem {
	return ReviewItem{RawValue: text, SourceKind: source}
}
