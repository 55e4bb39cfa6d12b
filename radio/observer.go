package radio

import "i4.energy/across/radiocfg/at"

// Observer is notified of session progress. Calls are made after the
// session has released its lock, so an Observer may call back into the
// Session. Notifications caused by different goroutines (an operator call
// and a transport delivery) may interleave.
type Observer interface {
	// FactUpdated reports a value read from the radio.
	FactUpdated(f at.ParsedFact)
	// Status reports OK/ERROR replies, malformed replies and transport
	// errors in human readable form.
	Status(text string)
	// SequenceIdle reports that every fact is known and the session
	// accepts saves.
	SequenceIdle()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnFact   func(at.ParsedFact)
	OnStatus func(string)
	OnIdle   func()
}

func (o ObserverFuncs) FactUpdated(f at.ParsedFact) {
	if o.OnFact != nil {
		o.OnFact(f)
	}
}

func (o ObserverFuncs) Status(text string) {
	if o.OnStatus != nil {
		o.OnStatus(text)
	}
}

func (o ObserverFuncs) SequenceIdle() {
	if o.OnIdle != nil {
		o.OnIdle()
	}
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (os Observers) FactUpdated(f at.ParsedFact) {
	for _, o := range os {
		o.FactUpdated(f)
	}
}

func (os Observers) Status(text string) {
	for _, o := range os {
		o.Status(text)
	}
}

func (os Observers) SequenceIdle() {
	for _, o := range os {
		o.SequenceIdle()
	}
}
