package pipeline

import (
	"sort"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

// Aggregate counts rows per label. The ordered list is sorted by descending
// count with ties kept in first-seen order. ok is false for the no-input
// report, which has nothing to chart.
func Aggregate(table models.ReportTable) (distribution models.SentimentDistribution, ordered []models.LabelCount, ok bool) {
	if len(table) == 0 || table.IsNoInput() {
		return nil, nil, false
	}

	distribution = make(models.SentimentDistribution)
	for _, row := range table {
		if _, seen := distribution[row.SentimentLabel]; !seen {
			ordered = append(ordered, models.LabelCount{Label: row.SentimentLabel})
		}
		distribution[row.SentimentLabel]++
	}

	for i := range ordered {
		ordered[i].Count = distribution[ordered[i].Label]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Count > ordered[j].Count
	})

	return distribution, ordered, true
}
