package quickfix

import "fmt"

// SessionRejectReason is the tag-373 integer code describing why a
// session-level validation failure was raised against an inbound message.
type SessionRejectReason int

// Session-level reject reason codes.
const (
	RejectInvalidTagNumber     SessionRejectReason = 0
	RejectRequiredTagMissing   SessionRejectReason = 1
	RejectTagNotDefined        SessionRejectReason = 2
	RejectNoValue              SessionRejectReason = 4
	RejectIncorrectValue       SessionRejectReason = 5
	RejectIncorrectDataFormat  SessionRejectReason = 6
	RejectCompIDProblem        SessionRejectReason = 9
	RejectSendingTimeAccuracy  SessionRejectReason = 10
	RejectInvalidMsgType       SessionRejectReason = 11
	RejectTagAppearsMoreThanOnce SessionRejectReason = 13
	RejectTagOutOfOrder        SessionRejectReason = 14
	RejectIncorrectNumInGroup  SessionRejectReason = 16
)

func (r SessionRejectReason) String() string {
	switch r {
	case RejectInvalidTagNumber:
		return "Invalid tag number"
	case RejectRequiredTagMissing:
		return "Required tag missing"
	case RejectTagNotDefined:
		return "Tag not defined for this message type"
	case RejectNoValue:
		return "Tag specified without a value"
	case RejectIncorrectValue:
		return "Value is incorrect (out of range) for this tag"
	case RejectIncorrectDataFormat:
		return "Incorrect data format for value"
	case RejectCompIDProblem:
		return "CompID problem"
	case RejectSendingTimeAccuracy:
		return "SendingTime accuracy problem"
	case RejectInvalidMsgType:
		return "Invalid MsgType"
	case RejectTagAppearsMoreThanOnce:
		return "Tag appears more than once"
	case RejectTagOutOfOrder:
		return "Tag specified out of required order"
	case RejectIncorrectNumInGroup:
		return "Incorrect NumInGroup count for repeating group"
	default:
		return fmt.Sprintf("reject reason %d", int(r))
	}
}

// ParseError is returned when bytes cannot be parsed as a FIX message.
type ParseError struct {
	OrigError string
}

func (e ParseError) Error() string { return fmt.Sprintf("error parsing message: %s", e.OrigError) }

// FrameError is returned by the Parser when the byte stream cannot be
// framed into a message at all (malformed length, missing checksum,
// oversized buffer). Unlike ParseError, a FrameError is fatal for the
// connection: there is no well-formed message to reject.
type FrameError struct {
	Reason string
}

func (e FrameError) Error() string { return fmt.Sprintf("frame error: %s", e.Reason) }

// MessageRejectError is raised by Application/Validator code to request
// that the session emit a session-level Reject (or BusinessMessageReject
// for application-layer problems at BeginString >= FIX.4.2) with the given
// reason and optional reference tag.
type MessageRejectError struct {
	RejectReason SessionRejectReason
	Text         string
	RefTagID     int
	BusinessReject bool
}

func (e MessageRejectError) Error() string {
	if e.Text != "" {
		return e.Text
	}
	return e.RejectReason.String()
}

// NewRequiredTagMissingError builds the MessageRejectError raised when a
// required field is absent.
func NewRequiredTagMissingError(t int) MessageRejectError {
	return MessageRejectError{RejectReason: RejectRequiredTagMissing, RefTagID: t, Text: "Required tag missing"}
}

// DoNotSendError is raised by an Application's ToApp/ToAdmin callback to
// abort sending a message without incrementing the outbound sequence
// number.
type DoNotSendError struct{ Reason string }

func (e DoNotSendError) Error() string {
	if e.Reason == "" {
		return "do not send"
	}
	return e.Reason
}

// UnsupportedMessageType is raised by Application.FromApp when it does not
// recognize the inbound MsgType.
type UnsupportedMessageType struct{}

func (UnsupportedMessageType) Error() string { return "unsupported message type" }

// RejectLogon is an error an Application can return from FromAdmin to
// refuse a Logon. The session gives it no special handling: like any
// FromAdmin error that is not a MessageRejectError, it makes the session
// drop the Logon unanswered; no Logout is sent and the connection is not
// closed.
type RejectLogon struct{ Reason string }

func (e RejectLogon) Error() string {
	if e.Reason == "" {
		return "logon rejected"
	}
	return e.Reason
}

// IncorrectDataFormat is raised by an Application callback when a field's
// bytes do not match its declared type.
type IncorrectDataFormat struct {
	Tag    int
	Reason string
}

func (e IncorrectDataFormat) Error() string {
	return fmt.Sprintf("incorrect data format for tag %d: %s", e.Tag, e.Reason)
}

// IncorrectTagValue is raised by an Application callback when a field's
// value is not in its declared enum set.
type IncorrectTagValue struct{ Tag int }

func (e IncorrectTagValue) Error() string { return fmt.Sprintf("incorrect value for tag %d", e.Tag) }
