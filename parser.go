package quickfix

import (
	"bytes"
	"fmt"
	"strconv"
)

// DefaultMaxMessageSize is the buffered-bytes ceiling a Parser enforces
// when no explicit limit is configured (config.GlobalConfig.MaxMessageSize).
const DefaultMaxMessageSize = 1 << 20 // 1 MiB

var (
	beginStringTag = []byte("8=")
	bodyLengthTag  = []byte{soh, '9', '='}
	checkSumTag    = []byte{soh, '1', '0', '='}
)

// Parser frames raw socket bytes into complete FIX messages: "8=" marks
// a candidate start, "9=<n><SOH>" names the exact byte count of
// everything between that SOH and the CheckSum field, and "10=<nnn><SOH>"
// closes the message. Bytes preceding the first recognized "8=" are
// garbage (partial reads, stray bytes) and are discarded without error.
type Parser struct {
	buf            []byte
	maxMessageSize int
}

// NewParser constructs a Parser with the given buffered-bytes ceiling. A
// maxMessageSize <= 0 uses DefaultMaxMessageSize.
func NewParser(maxMessageSize int) *Parser {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &Parser{maxMessageSize: maxMessageSize}
}

// Append buffers newly read socket bytes.
func (p *Parser) Append(data []byte) {
	p.buf = append(p.buf, data...)
}

// Next extracts the next complete message's raw bytes, if one is fully
// buffered. It returns (nil, nil) when more bytes are needed, and a
// FrameError when the buffered bytes can never frame a valid message
// (corrupt BodyLength, corrupt CheckSum framing, or the buffer exceeded
// maxMessageSize before a complete message appeared).
func (p *Parser) Next() ([]byte, error) {
	idx := bytes.Index(p.buf, beginStringTag)
	if idx < 0 {
		// No candidate start at all. Keep the final byte in case it is
		// the leading '8' of a tag straddling the next Append.
		if len(p.buf) > 1 {
			p.buf = p.buf[len(p.buf)-1:]
		}
		return nil, nil
	}
	if idx > 0 {
		p.buf = p.buf[idx:]
	}

	if p.checkOversize() {
		return nil, p.frameTooLong()
	}

	bodyLenAt := bytes.Index(p.buf[2:], bodyLengthTag)
	if bodyLenAt < 0 {
		if p.checkOversize() {
			return nil, p.frameTooLong()
		}
		return nil, nil
	}
	startPos := 2 + bodyLenAt + len(bodyLengthTag)

	sohIdx := bytes.IndexByte(p.buf[startPos:], soh)
	if sohIdx < 0 {
		if p.checkOversize() {
			return nil, p.frameTooLong()
		}
		return nil, nil
	}

	bodyLen, err := strconv.Atoi(string(p.buf[startPos : startPos+sohIdx]))
	if err != nil || bodyLen < 0 {
		reason := "BodyLength error"
		p.resetAfterError(startPos + sohIdx + 1)
		return nil, FrameError{Reason: reason}
	}

	bodyStart := startPos + sohIdx + 1
	checksumOffset := bodyStart + bodyLen
	if checksumOffset+len(checkSumTag) > len(p.buf) {
		if p.checkOversize() {
			return nil, p.frameTooLong()
		}
		return nil, nil
	}

	if !bytes.Equal(p.buf[checksumOffset:checksumOffset+len(checkSumTag)], checkSumTag) {
		p.resetAfterError(checksumOffset)
		return nil, FrameError{Reason: "BodyLength mismatch"}
	}

	csValueStart := checksumOffset + len(checkSumTag)
	trailingSOH := bytes.IndexByte(p.buf[csValueStart:], soh)
	if trailingSOH < 0 {
		if p.checkOversize() {
			return nil, p.frameTooLong()
		}
		return nil, nil
	}

	total := csValueStart + trailingSOH + 1
	msg := make([]byte, total)
	copy(msg, p.buf[:total])
	p.buf = p.buf[total:]
	return msg, nil
}

func (p *Parser) checkOversize() bool { return len(p.buf) > p.maxMessageSize }

func (p *Parser) frameTooLong() error {
	p.buf = nil
	return FrameError{Reason: fmt.Sprintf("message exceeds maximum size of %d bytes", p.maxMessageSize)}
}

// resetAfterError drops the unrecoverable candidate message so the next
// call to Next can search for a fresh "8=" beyond it.
func (p *Parser) resetAfterError(through int) {
	if through < 0 || through > len(p.buf) {
		through = len(p.buf)
	}
	p.buf = p.buf[through:]
}

// Buffered returns the number of bytes currently held, undrained by Next.
func (p *Parser) Buffered() int { return len(p.buf) }
