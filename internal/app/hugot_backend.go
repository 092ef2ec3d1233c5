//go:build !nohugot

package app

import (
	"github.com/spacesedan/reviewsentiment/config"
	"github.com/spacesedan/reviewsentiment/internal/sentiment/hugot_classifier"
)

func loadHugot(cfg config.Config) (localClassifier, string, error) {
	model := cfg.HFModel
	if model == config.DEFAULT_HF_MODEL {
		model = hugot_classifier.HUGOT_DEFAULT_MODEL
	}
	hc, err := hugot_classifier.NewHugotClassifier(cfg.HFModelPath, model, HUGOT_MODEL_DIR)
	if err != nil {
		return nil, model, err
	}
	return hc, model, nil
}
