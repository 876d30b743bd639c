package service

import (
	"battguard/internal/core/domain"
)

// LoadSwitchIntent is a planned load-switch transition. It only becomes
// latch state once the coil write it describes has been acknowledged.
type LoadSwitchIntent struct {
	Disconnect bool
}

// DisconnectLatch tracks the committed state of the load switch.
// Plan() decides whether a decision requires a write; Commit() records
// the outcome after the monitor has acknowledged it. An unacknowledged
// write leaves the latch untouched so the next decision replans it.
type DisconnectLatch struct {
	triggered bool
	released  bool
}

func NewDisconnectLatch() *DisconnectLatch {
	return &DisconnectLatch{}
}

func (l *DisconnectLatch) Plan(decision domain.Decision) *LoadSwitchIntent {
	switch decision {
	case domain.DecisionTrigger:
		if !l.triggered {
			return &LoadSwitchIntent{Disconnect: true}
		}
	case domain.DecisionRelease:
		if !l.released {
			return &LoadSwitchIntent{Disconnect: false}
		}
	}
	return nil
}

func (l *DisconnectLatch) Commit(intent *LoadSwitchIntent) {
	if intent == nil {
		return
	}
	if intent.Disconnect {
		l.triggered = true
		l.released = false
	} else {
		l.triggered = false
		l.released = true
	}
}

// Asserted reports whether the load is latched disconnected.
func (l *DisconnectLatch) Asserted() bool {
	return l.triggered
}

// Released reports whether a reconnect has been committed since the
// last disconnect. False at startup: the first trigger always plans.
func (l *DisconnectLatch) Released() bool {
	return l.released
}
