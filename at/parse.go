package at

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Reply is the result of parsing one line from the radio.
type Reply struct {
	Outcome Outcome
	// Fact is set for OutcomeFact. For OutcomeMalformed only Fact.Kind is
	// meaningful.
	Fact ParsedFact
	Line string
	// Err explains an OutcomeMalformed and wraps ErrMalformedReply.
	Err error
}

type extractor func(line string) (ParsedFact, error)

// marker pairs a firmware reply marker with the extractor for its payload.
type marker struct {
	text    string
	fact    Fact
	extract extractor
}

// markers is checked in order and the first marker contained in a line
// decides how the line is read. The order is part of the protocol.
var markers = []marker{
	{MarkerIP, FactNetworkIP, extractIP},
	{MarkerKey, FactAccessKey, extractKey},
	{MarkerBand, FactBandIndex, extractBand},
	{MarkerRate, FactBandwidthTxPower, extractRatePower},
	{MarkerAdvMode, FactAdvertisingMode, extractAdvMode},
}

// errNoBandCode marks a band reply without any known wire code. Such a
// line is treated as unrecognized and leaves the fact pending.
var errNoBandCode = errors.New("no known band code")

// Markers returns the reply markers in the order they are checked.
func Markers() []string {
	out := make([]string, len(markers))
	for i, m := range markers {
		out[i] = m.text
	}
	return out
}

// Parse classifies a reply line and decodes the fact it carries.
//
// Recognition is by substring: fact markers first, in the order returned
// by Markers, then OK, then the error codes. Anything else is
// OutcomeUnrecognized.
func Parse(line string) Reply {
	for _, m := range markers {
		if !strings.Contains(line, m.text) {
			continue
		}
		pf, err := m.extract(line)
		switch {
		case err == nil:
			pf.Kind = m.fact
			return Reply{Outcome: OutcomeFact, Fact: pf, Line: line}
		case errors.Is(err, errNoBandCode):
			return Reply{Outcome: OutcomeUnrecognized, Line: line}
		default:
			return Reply{
				Outcome: OutcomeMalformed,
				Fact:    ParsedFact{Kind: m.fact},
				Line:    line,
				Err:     fmt.Errorf("%w: %s: %w", ErrMalformedReply, m.fact, err),
			}
		}
	}

	return Reply{Outcome: classify(line), Line: line}
}

// classify identifies final result codes.
func classify(line string) Outcome {
	line = strings.TrimSpace(line)

	switch line {
	case OK:
		return OutcomeOK
	case ERROR:
		return OutcomeError
	}

	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return OutcomeError
	default:
		return OutcomeUnrecognized
	}
}

// quoted returns the text between the first pair of double quotes.
func quoted(s string) (string, error) {
	parts := strings.SplitN(s, `"`, 3)
	if len(parts) < 3 {
		return "", fmt.Errorf("no quoted value in %q", s)
	}
	return parts[1], nil
}

// ^DUIP: 0,"192.168.10.50",8CFF5F00,"00:01:00:5f:ff:8c",9250353
func extractIP(line string) (ParsedFact, error) {
	ip, err := quoted(line)
	if err != nil {
		return ParsedFact{}, err
	}
	return ParsedFact{IP: ip}, nil
}

// ^DAPI: "0011AABB"
func extractKey(line string) (ParsedFact, error) {
	key, err := quoted(line)
	if err != nil {
		return ParsedFact{}, err
	}
	return ParsedFact{AccessKey: key}, nil
}

// ^DAOCNDI: 0004
func extractBand(line string) (ParsedFact, error) {
	for i, code := range bandCodes {
		if strings.Contains(line, code) {
			return ParsedFact{Band: i}, nil
		}
	}
	return ParsedFact{}, errNoBandCode
}

// ^DRPS: 0,1,"15"
func extractRatePower(line string) (ParsedFact, error) {
	words := strings.Split(line, " ")
	if len(words) < 2 {
		return ParsedFact{}, errors.New("no payload after marker")
	}
	fields := strings.Split(words[1], ",")
	if len(fields) < 3 {
		return ParsedFact{}, fmt.Errorf("want 3 comma separated fields, got %d", len(fields))
	}

	bandwidth, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return ParsedFact{}, fmt.Errorf("bandwidth: %w", err)
	}

	power, err := quoted(fields[2])
	if err != nil {
		return ParsedFact{}, fmt.Errorf("tx power: %w", err)
	}
	txPower, err := strconv.Atoi(power)
	if err != nil {
		return ParsedFact{}, fmt.Errorf("tx power: %w", err)
	}

	return ParsedFact{Bandwidth: bandwidth, TxPower: txPower}, nil
}

// ^DDTC: 0,0
func extractAdvMode(line string) (ParsedFact, error) {
	fields := strings.Split(strings.Replace(line, ":", ",", 1), ",")
	if len(fields) < 2 {
		return ParsedFact{}, errors.New("no mode field")
	}

	mode, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return ParsedFact{}, fmt.Errorf("mode: %w", err)
	}
	if !AdvertisingMode(mode).Valid() {
		return ParsedFact{}, fmt.Errorf("mode %d out of range", mode)
	}

	return ParsedFact{Mode: mode}, nil
}
