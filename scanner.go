package quickfix

import (
	"github.com/qyangdu/gofix/datadictionary"
	"github.com/qyangdu/gofix/fix/tag"
)

// rawField is one (tag, value) pair as it appeared on the wire, before any
// header/body/trailer classification.
type rawField struct {
	tag   tag.Tag
	value []byte
}

// fieldScanner walks a body-of-message byte slice (the bytes already
// bracketed by Frame Parser: everything from "8=" through the trailing
// SOH after the checksum) tag by tag. It is dictionary-aware only for data
// fields: a field whose tag is the one immediately following a length tag
// this scanner just produced (tag-1, or 89/Signature following
// 93/SignatureLength) is read as exactly that many raw bytes instead of
// being scanned up to the next SOH, since data values may contain SOH.
type fieldScanner struct {
	buf []byte
	pos int

	sessionDict *datadictionary.Dictionary
	appDict     *datadictionary.Dictionary

	pendingDataTag tag.Tag
	pendingDataLen int
	havePending    bool
}

func newFieldScanner(buf []byte, sessionDict, appDict *datadictionary.Dictionary) *fieldScanner {
	return &fieldScanner{buf: buf, sessionDict: sessionDict, appDict: appDict}
}

func (s *fieldScanner) atEnd() bool { return s.pos >= len(s.buf) }

// peekTag returns the tag number of the next field without consuming it.
// It never matches across a pending data read (data fields are always
// consumed via Next before a peek is attempted).
func (s *fieldScanner) peekTag() (tag.Tag, bool) {
	if s.atEnd() {
		return 0, false
	}
	eq := -1
	for i := s.pos; i < len(s.buf); i++ {
		if s.buf[i] == '=' {
			eq = i
			break
		}
	}
	if eq < 0 {
		return 0, false
	}
	n, err := parseTagNumber(s.buf[s.pos:eq])
	if err != nil {
		return 0, false
	}
	return n, true
}

// next consumes and returns the next field.
func (s *fieldScanner) next() (rawField, error) {
	if s.atEnd() {
		return rawField{}, ParseError{OrigError: "no trailing delimiter: unexpected end of buffer"}
	}
	eq := -1
	for i := s.pos; i < len(s.buf); i++ {
		if s.buf[i] == '=' {
			eq = i
			break
		}
	}
	if eq < 0 {
		return rawField{}, ParseError{OrigError: "malformed field: no '=' found"}
	}
	t, err := parseTagNumber(s.buf[s.pos:eq])
	if err != nil {
		return rawField{}, err
	}

	valueStart := eq + 1
	var value []byte
	if s.havePending && t == s.pendingDataTag {
		if valueStart+s.pendingDataLen > len(s.buf) {
			return rawField{}, ParseError{OrigError: "data field length exceeds remaining buffer"}
		}
		value = s.buf[valueStart : valueStart+s.pendingDataLen]
		end := valueStart + s.pendingDataLen
		if end >= len(s.buf) || s.buf[end] != soh {
			return rawField{}, ParseError{OrigError: "data field not terminated by SOH"}
		}
		s.pos = end + 1
	} else {
		sohIdx := -1
		for i := valueStart; i < len(s.buf); i++ {
			if s.buf[i] == soh {
				sohIdx = i
				break
			}
		}
		if sohIdx < 0 {
			return rawField{}, ParseError{OrigError: "no trailing delimiter in field"}
		}
		value = s.buf[valueStart:sohIdx]
		s.pos = sohIdx + 1
	}
	s.havePending = false

	s.updatePending(t, value)
	return rawField{tag: t, value: value}, nil
}

// updatePending records whether the field just produced announces the
// length of the following data field.
func (s *fieldScanner) updatePending(t tag.Tag, value []byte) {
	var dataTag tag.Tag
	switch {
	case t == tag.SignatureLength:
		dataTag = tag.Signature
	default:
		candidate := tag.Tag(int(t) + 1)
		if s.isDataField(candidate) {
			dataTag = candidate
		}
	}
	if dataTag == 0 {
		return
	}
	n, err := parseTagNumber(value)
	if err != nil {
		return
	}
	s.pendingDataTag = dataTag
	s.pendingDataLen = int(n)
	s.havePending = true
}

func (s *fieldScanner) isDataField(t tag.Tag) bool {
	if s.sessionDict != nil && s.sessionDict.IsDataField(t) {
		return true
	}
	if s.appDict != nil && s.appDict.IsDataField(t) {
		return true
	}
	return false
}

// parseTagNumber parses a 1-8 digit positive tag terminated implicitly by
// the caller having sliced at '='.
func parseTagNumber(raw []byte) (tag.Tag, error) {
	if len(raw) == 0 || len(raw) > 8 {
		return 0, ParseError{OrigError: "tag number must be 1-8 digits"}
	}
	n := 0
	for _, b := range raw {
		if b < '0' || b > '9' {
			return 0, ParseError{OrigError: "tag number must be numeric"}
		}
		n = n*10 + int(b-'0')
	}
	if n < 1 || n > 99999 {
		return 0, ParseError{OrigError: "tag number out of range [1,99999]"}
	}
	return tag.Tag(n), nil
}
