package reviews

import "github.com/spacesedan/reviewsentiment/internal/models"

// Merge places free-text reviews first and appends the spreadsheet reviews,
// keeping the order of each source. Nothing is deduplicated.
func Merge(freeText []models.ReviewItem, sheet ...[]models.ReviewItem) []models.ReviewItem {
	size := len(freeText)
	for _, s := range sheet {
		size += len(s)
	}

	merged := make([]models.ReviewItem, 0, size)
	merged = append(merged, freeText...)
	for _, s := range sheet {
		merged = append(merged, s...)
	}
	return merged
}
