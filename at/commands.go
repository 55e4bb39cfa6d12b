package at

import (
	"fmt"
	"strings"
)

var queries = [NumFacts]string{
	FactNetworkIP:        CmdQueryIP,
	FactBandIndex:        CmdQueryBand,
	FactBandwidthTxPower: CmdQueryRate,
	FactAccessKey:        CmdQueryKey,
	FactAdvertisingMode:  CmdQueryAdvMode,
}

// Query returns the read command for a fact, or "" for an unknown fact.
func Query(f Fact) string {
	if !f.Valid() {
		return ""
	}
	return queries[f]
}

// WriteAccessKey sets the mesh access key.
func WriteAccessKey(key string) string {
	return fmt.Sprintf(`AT^DAPI="%s"`, key)
}

// WriteBand selects the radio band by wire code ("01", "04" or "08").
func WriteBand(code string) string {
	return "AT^DAOCNDI=" + code
}

// WriteRatePower sets the bandwidth index together with the transmit power.
func WriteRatePower(bandwidth, txPower int) string {
	return fmt.Sprintf(`AT^DRPS=,%d,"%d"`, bandwidth, txPower)
}

// WritePowerCeiling forces the maximum transmit power. The firmware clips
// the transmit power to this ceiling, so it is always written alongside
// WriteRatePower with the same value.
func WritePowerCeiling(txPower int) string {
	return fmt.Sprintf(`AT^DSONSFTP=1,"%d"`, txPower)
}

// WriteAdvertisingMode selects auto, controller or access mode.
func WriteAdvertisingMode(mode int) string {
	return fmt.Sprintf("AT^DDTC=%d", mode)
}

// IsCommand reports whether s may be passed to the radio verbatim.
func IsCommand(s string) bool {
	return strings.HasPrefix(s, Prefix)
}
