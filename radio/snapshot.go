package radio

import (
	"i4.energy/across/radiocfg/at"
)

// Snapshot is a set of radio settings. Nil fields are unknown in a current
// snapshot and "leave unchanged" in a desired one.
type Snapshot struct {
	NetworkIP       *string `json:"network_ip,omitempty" yaml:"network_ip,omitempty"`
	AccessKey       *string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	Band            *int    `json:"band,omitempty" yaml:"band,omitempty"`
	Bandwidth       *int    `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty"`
	TxPower         *int    `json:"tx_power,omitempty" yaml:"tx_power,omitempty"`
	AdvertisingMode *int    `json:"advertising_mode,omitempty" yaml:"advertising_mode,omitempty"`
}

// Ptr returns a pointer to v, for filling Snapshot literals.
func Ptr[T any](v T) *T {
	return &v
}

// Apply records a decoded reply.
func (s *Snapshot) Apply(f at.ParsedFact) {
	switch f.Kind {
	case at.FactNetworkIP:
		s.NetworkIP = Ptr(f.IP)
	case at.FactAccessKey:
		s.AccessKey = Ptr(f.AccessKey)
	case at.FactBandIndex:
		s.Band = Ptr(f.Band)
	case at.FactBandwidthTxPower:
		s.Bandwidth = Ptr(f.Bandwidth)
		s.TxPower = Ptr(f.TxPower)
	case at.FactAdvertisingMode:
		s.AdvertisingMode = Ptr(f.Mode)
	}
}

// Known reports whether every field of fact f has a value.
func (s Snapshot) Known(f at.Fact) bool {
	switch f {
	case at.FactNetworkIP:
		return s.NetworkIP != nil
	case at.FactAccessKey:
		return s.AccessKey != nil
	case at.FactBandIndex:
		return s.Band != nil
	case at.FactBandwidthTxPower:
		return s.Bandwidth != nil && s.TxPower != nil
	case at.FactAdvertisingMode:
		return s.AdvertisingMode != nil
	default:
		return false
	}
}

// Clone returns a deep copy so callers cannot reach the session's fields.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		NetworkIP:       clonePtr(s.NetworkIP),
		AccessKey:       clonePtr(s.AccessKey),
		Band:            clonePtr(s.Band),
		Bandwidth:       clonePtr(s.Bandwidth),
		TxPower:         clonePtr(s.TxPower),
		AdvertisingMode: clonePtr(s.AdvertisingMode),
	}
}

// Equal compares field values.
func (s Snapshot) Equal(o Snapshot) bool {
	return eqPtr(s.NetworkIP, o.NetworkIP) &&
		eqPtr(s.AccessKey, o.AccessKey) &&
		eqPtr(s.Band, o.Band) &&
		eqPtr(s.Bandwidth, o.Bandwidth) &&
		eqPtr(s.TxPower, o.TxPower) &&
		eqPtr(s.AdvertisingMode, o.AdvertisingMode)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// differs reports whether a desired value is set and not equal to the
// current one.
func differs[T comparable](current, desired *T) bool {
	return desired != nil && !eqPtr(current, desired)
}
