package radio

import (
	"strings"

	"i4.energy/across/radiocfg/at"
)

// PendingSet holds one bit per fact that is not known to be in sync with
// the radio. The zero value has nothing pending.
type PendingSet uint8

const allPending = PendingSet(1<<at.NumFacts - 1)

// MarkAll sets every fact pending.
func (p *PendingSet) MarkAll() {
	*p = allPending
}

// Set marks f pending.
func (p *PendingSet) Set(f at.Fact) {
	if f.Valid() {
		*p |= 1 << f
	}
}

// Clear marks f known.
func (p *PendingSet) Clear(f at.Fact) {
	if f.Valid() {
		*p &^= 1 << f
	}
}

// Has reports whether f is pending.
func (p PendingSet) Has(f at.Fact) bool {
	return f.Valid() && p&(1<<f) != 0
}

// Empty reports whether nothing is pending.
func (p PendingSet) Empty() bool {
	return p&allPending == 0
}

// Next returns the pending fact with the highest query priority.
func (p PendingSet) Next() (at.Fact, bool) {
	for _, f := range at.Facts() {
		if p.Has(f) {
			return f, true
		}
	}
	return 0, false
}

// Facts lists the pending facts in query priority order.
func (p PendingSet) Facts() []at.Fact {
	var out []at.Fact
	for _, f := range at.Facts() {
		if p.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (p PendingSet) String() string {
	facts := p.Facts()
	names := make([]string, len(facts))
	for i, f := range facts {
		names[i] = f.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}
