package radio

import (
	"encoding/hex"
	"fmt"

	"i4.energy/across/radiocfg/at"
)

// Write is one command of a save, tagged with the fact it changes.
type Write struct {
	Fact    at.Fact
	Command string
}

// NextQuery returns the read command for the pending fact with the highest
// query priority. ok is false once nothing is pending.
func NextQuery(p PendingSet) (cmd string, fact at.Fact, ok bool) {
	fact, ok = p.Next()
	if !ok {
		return "", 0, false
	}
	return at.Query(fact), fact, true
}

// Plan returns the commands that move the radio from current to desired,
// in save order: access key, band, bandwidth and power, advertising mode.
//
// Desired fields left nil are not touched. The network IP is read-only and
// never planned. Bandwidth and power share one command; a change to either
// writes both, taking the unchanged half from current, and a power change
// also writes the power ceiling. Plan validates desired before planning and
// returns an error wrapping ErrValidation without any writes if it fails.
func Plan(current, desired Snapshot) ([]Write, error) {
	if err := Validate(desired); err != nil {
		return nil, err
	}

	var writes []Write

	if differs(current.AccessKey, desired.AccessKey) {
		writes = append(writes, Write{at.FactAccessKey, at.WriteAccessKey(*desired.AccessKey)})
	}

	if differs(current.Band, desired.Band) {
		code, _ := at.BandCode(*desired.Band)
		writes = append(writes, Write{at.FactBandIndex, at.WriteBand(code)})
	}

	bandwidthChanged := differs(current.Bandwidth, desired.Bandwidth)
	powerChanged := differs(current.TxPower, desired.TxPower)
	if bandwidthChanged || powerChanged {
		bandwidth := firstSet(desired.Bandwidth, current.Bandwidth)
		power := firstSet(desired.TxPower, current.TxPower)
		if bandwidth == nil || power == nil {
			return nil, fmt.Errorf("%w: bandwidth and tx power are written together and one of them is unknown", ErrValidation)
		}
		writes = append(writes, Write{at.FactBandwidthTxPower, at.WriteRatePower(*bandwidth, *power)})
		if powerChanged {
			writes = append(writes, Write{at.FactBandwidthTxPower, at.WritePowerCeiling(*power)})
		}
	}

	if differs(current.AdvertisingMode, desired.AdvertisingMode) {
		writes = append(writes, Write{at.FactAdvertisingMode, at.WriteAdvertisingMode(*desired.AdvertisingMode)})
	}

	return writes, nil
}

// Validate checks the settings of a desired snapshot that the firmware
// would reject or that cannot be encoded.
func Validate(desired Snapshot) error {
	if k := desired.AccessKey; k != nil {
		if len(*k)%2 != 0 {
			return fmt.Errorf("%w: access key must be an even number of hex digits, got %d", ErrValidation, len(*k))
		}
		if _, err := hex.DecodeString(*k); err != nil {
			return fmt.Errorf("%w: access key %q is not hexadecimal", ErrValidation, *k)
		}
	}
	if b := desired.Band; b != nil {
		if _, ok := at.BandCode(*b); !ok {
			return fmt.Errorf("%w: band index %d out of range", ErrValidation, *b)
		}
	}
	if bw := desired.Bandwidth; bw != nil && *bw < 0 {
		return fmt.Errorf("%w: bandwidth index %d is negative", ErrValidation, *bw)
	}
	if m := desired.AdvertisingMode; m != nil && !at.AdvertisingMode(*m).Valid() {
		return fmt.Errorf("%w: advertising mode %d out of range", ErrValidation, *m)
	}
	return nil
}

// ValidateRaw checks a command typed by the operator.
func ValidateRaw(cmd string) error {
	if !at.IsCommand(cmd) {
		return fmt.Errorf("%w: command must start with %q", ErrValidation, at.Prefix)
	}
	return nil
}

func firstSet[T any](ps ...*T) *T {
	for _, p := range ps {
		if p != nil {
			return p
		}
	}
	return nil
}
