package radio_test

import (
	"testing"

	"i4.energy/across/radiocfg/at"
	"i4.energy/across/radiocfg/radio"
)

func TestPendingSet(t *testing.T) {
	var p radio.PendingSet

	if !p.Empty() {
		t.Fatal("zero PendingSet should be empty")
	}
	if _, ok := p.Next(); ok {
		t.Error("Next() on empty set should report false")
	}

	p.MarkAll()
	for _, f := range at.Facts() {
		if !p.Has(f) {
			t.Errorf("MarkAll() should mark %s", f)
		}
	}
	if got := p.String(); got != "{ip,band,bandwidth-power,access-key,advertising-mode}" {
		t.Errorf("String() = %q", got)
	}

	p.Clear(at.FactNetworkIP)
	p.Clear(at.FactBandIndex)
	if f, ok := p.Next(); !ok || f != at.FactBandwidthTxPower {
		t.Errorf("Next() = %s, %v, want bandwidth-power", f, ok)
	}

	// Clearing twice is harmless.
	p.Clear(at.FactBandIndex)
	if got := len(p.Facts()); got != 3 {
		t.Errorf("expected 3 pending facts, got %d", got)
	}

	p.Set(at.FactBandIndex)
	if f, _ := p.Next(); f != at.FactBandIndex {
		t.Errorf("Next() = %s, want band after Set", f)
	}

	// Unknown facts are ignored.
	p.Set(at.Fact(200))
	if p.Has(at.Fact(200)) {
		t.Error("unknown fact should never be pending")
	}

	for _, f := range at.Facts() {
		p.Clear(f)
	}
	if !p.Empty() {
		t.Errorf("expected empty set, got %s", p)
	}
	if got := p.String(); got != "{}" {
		t.Errorf("String() = %q, want {}", got)
	}
}

func TestNextQuery(t *testing.T) {
	var p radio.PendingSet
	p.Set(at.FactAdvertisingMode)
	p.Set(at.FactAccessKey)

	cmd, fact, ok := radio.NextQuery(p)
	if !ok || fact != at.FactAccessKey || cmd != at.CmdQueryKey {
		t.Errorf("NextQuery() = %q, %s, %v", cmd, fact, ok)
	}

	if _, _, ok := radio.NextQuery(0); ok {
		t.Error("NextQuery() on empty set should report false")
	}
}
