package main

import (
	"errors"
	"log/slog"
	"sync"

	"i4.energy/across/radiocfg/radio"
)

// profileApplier saves the desired profile the first time discovery
// finishes. Later idle transitions, including the one that follows the
// save itself, are ignored.
type profileApplier struct {
	session *radio.Session
	desired radio.Snapshot
	logger  *slog.Logger
	once    sync.Once
}

// Observer returns the observer that triggers the save.
func (p *profileApplier) Observer() radio.Observer {
	return radio.ObserverFuncs{OnIdle: p.apply}
}

func (p *profileApplier) apply() {
	p.once.Do(func() {
		err := p.session.Save(p.desired)
		switch {
		case err == nil:
			p.logger.Info("Applying desired profile", "pending", p.session.Pending().String())
		case errors.Is(err, radio.ErrValidation):
			p.logger.Error("Desired profile rejected", "error", err)
		default:
			p.logger.Error("Failed to apply desired profile", "error", err)
		}
	})
}
