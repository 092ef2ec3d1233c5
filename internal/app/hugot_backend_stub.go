//go:build nohugot

package app

import (
	"errors"

	"github.com/spacesedan/reviewsentiment/config"
)

var errHugotDisabled = errors.New("hugot backend not compiled in (built with -tags nohugot)")

func loadHugot(cfg config.Config) (localClassifier, string, error) {
	return nil, cfg.HFModel, errHugotDisabled
}
