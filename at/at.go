package at

const (
	// Terminal Control
	CR   = "\r"
	LF   = "\n"
	CRLF = "\r\n"

	// Response Codes
	OK       = "OK"
	ERROR    = "ERROR"
	CmeError = "+CME ERROR:"
	CmsError = "+CMS ERROR:"

	// Prefix every command must start with
	Prefix = "AT"

	// Reply markers embedded by the radio firmware
	MarkerIP      = "^DUIP:"
	MarkerKey     = "^DAPI:"
	MarkerBand    = "^DAOCNDI:"
	MarkerRate    = "^DRPS:"
	MarkerAdvMode = "^DDTC:"

	// Queries
	CmdQueryIP      = "AT^DUIP?"
	CmdQueryBand    = "AT^DAOCNDI?"
	CmdQueryRate    = "AT^DRPS?"
	CmdQueryKey     = "AT^DAPI?"
	CmdQueryAdvMode = "AT^DDTC?"

	// Radio maintenance mode, entered while a configuration session is open
	CmdRadioOff = "AT+CFUN=0"
	CmdRadioOn  = "AT+CFUN=1"

	// SerialLineLimit is the longest reply line kept from a serial port.
	// The firmware console reads into a 256 byte buffer including the
	// terminating NUL, so anything past 255 bytes never was a single line.
	SerialLineLimit = 255
)

// Outcome classifies a single reply line.
type Outcome int

const (
	OutcomeUnrecognized Outcome = iota // no marker matched, no state change
	OutcomeFact                        // a fact marker matched and the payload decoded
	OutcomeMalformed                   // a fact marker matched but the payload did not decode
	OutcomeOK                          // bare OK
	OutcomeError                       // ERROR, +CME ERROR, +CMS ERROR
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFact:
		return "fact"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeOK:
		return "ok"
	case OutcomeError:
		return "error"
	default:
		return "unrecognized"
	}
}
