package reviews

import (
	"strings"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

var lineBreaks = strings.NewReplacer("\r\n", ".", "\r", ".", "\n", ".")

// SegmentText splits a block of free text into candidate reviews. Every line
// break and every period is a split point; fragments are trimmed and empty
// ones dropped.
func SegmentText(text string) []string {
	if text == "" {
		return nil
	}

	fragments := strings.Split(lineBreaks.Replace(text), ".")
	segments := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		segments = append(segments, fragment)
	}

	return segments
}

func FromFreeText(text string) []models.ReviewItem {
	segments := SegmentText(text)
	items := make([]models.ReviewItem, 0, len(segments))
	for _, s := range segments {
		items = append(items, models.NewReviewItem(s, models.SourceFreeText))
	}
	return items
}
