package at

import (
	"bufio"
	"bytes"
)

// Splitter is used for tokenizing radio replies. It uses the signature of
// bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// Lines end with LF. A CR directly in front of the LF is part of the
// terminator and is stripped, so both "\r\n" from the serial console and
// bare "\n" from the web form produce the same tokens.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, bytes.TrimSuffix(data[0:i], []byte(CR)), nil
	}

	if atEOF {
		return len(data), bytes.TrimSuffix(data, []byte(CR)), nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Framer turns the byte chunks a transport pushes into complete reply
// lines. Chunks may hold several lines, part of a line or no terminator at
// all; incomplete data stays buffered until its terminator arrives.
//
// A Framer created with a positive limit keeps only the first limit bytes
// of a line. The rest of an over-long line is discarded up to its
// terminator and the truncated head is emitted as the line, matching the
// SerialLineLimit of the serial console.
//
// A Framer is not safe for concurrent use.
type Framer struct {
	limit    int
	buf      []byte
	overflow bool
}

// NewFramer returns a Framer that caps lines at limit bytes. A limit of
// zero or less disables the cap.
func NewFramer(limit int) *Framer {
	if limit < 0 {
		limit = 0
	}
	return &Framer{limit: limit}
}

// Feed buffers chunk and calls emit for every line it completes, in order.
func (f *Framer) Feed(chunk []byte, emit func(line string)) {
	for len(chunk) > 0 {
		if f.overflow {
			i := bytes.IndexByte(chunk, '\n')
			if i < 0 {
				return
			}
			chunk = chunk[i+1:]
			f.overflow = false
			line := string(f.buf)
			f.buf = f.buf[:0]
			emit(line)
			continue
		}

		f.buf = append(f.buf, chunk...)
		chunk = nil

		off := 0
		for {
			advance, token, _ := Splitter(f.buf[off:], false)
			if advance == 0 {
				break
			}
			off += advance
			emit(string(f.clip(token)))
		}
		f.buf = append(f.buf[:0], f.buf[off:]...)

		if f.limit > 0 && len(f.buf) > f.limit {
			f.buf = f.buf[:f.limit]
			f.overflow = true
		}
	}
}

// Buffered returns the number of bytes held for an incomplete line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Reset drops any buffered partial line.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.overflow = false
}

func (f *Framer) clip(token []byte) []byte {
	if f.limit > 0 && len(token) > f.limit {
		return token[:f.limit]
	}
	return token
}
