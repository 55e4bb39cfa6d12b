package at

// Fact is one independently queryable property of the radio.
//
// The numeric order is the query priority: a discovery round always asks
// for the lowest pending fact first.
type Fact uint8

const (
	FactNetworkIP Fact = iota
	FactBandIndex
	FactBandwidthTxPower
	FactAccessKey
	FactAdvertisingMode

	// NumFacts is the number of distinct facts.
	NumFacts = 5
)

var factNames = [NumFacts]string{
	FactNetworkIP:        "ip",
	FactBandIndex:        "band",
	FactBandwidthTxPower: "bandwidth-power",
	FactAccessKey:        "access-key",
	FactAdvertisingMode:  "advertising-mode",
}

// Facts returns every fact in query priority order.
func Facts() []Fact {
	return []Fact{
		FactNetworkIP,
		FactBandIndex,
		FactBandwidthTxPower,
		FactAccessKey,
		FactAdvertisingMode,
	}
}

// Valid reports whether f is one of the five known facts.
func (f Fact) Valid() bool {
	return f < NumFacts
}

func (f Fact) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return factNames[f]
}

// ParsedFact is a decoded fact reply. Only the fields belonging to Kind
// carry a value.
type ParsedFact struct {
	Kind Fact

	IP        string // FactNetworkIP, dotted quad
	AccessKey string // FactAccessKey, hex digits
	Band      int    // FactBandIndex, 0..2
	Bandwidth int    // FactBandwidthTxPower
	TxPower   int    // FactBandwidthTxPower
	Mode      int    // FactAdvertisingMode, see AdvertisingMode
}

// Band wire codes indexed by band index.
var bandCodes = [...]string{"01", "04", "08"}

// BandCode returns the wire code for a band index.
func BandCode(index int) (string, bool) {
	if index < 0 || index >= len(bandCodes) {
		return "", false
	}
	return bandCodes[index], true
}

// BandIndex returns the band index for a wire code.
func BandIndex(code string) (int, bool) {
	for i, c := range bandCodes {
		if c == code {
			return i, true
		}
	}
	return -1, false
}

// AdvertisingMode selects how the node takes part in the mesh.
type AdvertisingMode int

const (
	ModeAuto AdvertisingMode = iota
	ModeController
	ModeAccess
)

// Valid reports whether m is a mode the firmware accepts.
func (m AdvertisingMode) Valid() bool {
	return m >= ModeAuto && m <= ModeAccess
}

func (m AdvertisingMode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeController:
		return "controller"
	case ModeAccess:
		return "access"
	default:
		return "invalid"
	}
}
