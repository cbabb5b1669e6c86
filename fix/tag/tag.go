// Package tag defines FIX tag numbers and the header/trailer membership
// rules shared by every dictionary version.
package tag

// Tag is a FIX tag number. Valid tags are in [1, 99999].
type Tag int

// Well-known header, trailer and session-layer tags. Application tags are
// supplied by a DataDictionary; these are the ones the engine itself must
// recognize regardless of dictionary to parse and route messages.
const (
	BeginString   Tag = 8
	BodyLength    Tag = 9
	MsgType       Tag = 35
	SenderCompID  Tag = 49
	TargetCompID  Tag = 56
	SenderSubID   Tag = 50
	TargetSubID   Tag = 57

	OnBehalfOfCompID Tag = 115
	OnBehalfOfSubID  Tag = 116
	DeliverToCompID  Tag = 128
	DeliverToSubID   Tag = 129

	SenderLocationID     Tag = 142
	TargetLocationID     Tag = 143
	OnBehalfOfLocationID Tag = 144
	DeliverToLocationID  Tag = 145

	MsgSeqNum       Tag = 34
	PossDupFlag     Tag = 43
	PossResend      Tag = 97
	SendingTime     Tag = 52
	OrigSendingTime Tag = 122

	SignatureLength Tag = 93
	Signature       Tag = 89
	CheckSum        Tag = 10

	EncryptMethod    Tag = 98
	HeartBtInt       Tag = 108
	TestReqID        Tag = 112
	ResetSeqNumFlag  Tag = 141
	Username         Tag = 553
	Password         Tag = 554
	DefaultApplVerID Tag = 1137

	BeginSeqNo Tag = 7
	EndSeqNo   Tag = 16
	NewSeqNo   Tag = 36
	GapFillFlag Tag = 123

	Text                Tag = 58
	EncodedTextLen      Tag = 354
	EncodedText         Tag = 355
	RefSeqNum           Tag = 45
	RefTagID            Tag = 371
	RefMsgType          Tag = 372
	SessionRejectReason Tag = 373

	BusinessRejectRefID     Tag = 379
	BusinessRejectReason    Tag = 380
	SessionStatus           Tag = 1409

	NoRelatedSym Tag = 146
	Symbol       Tag = 55

	QuoteReqID         Tag = 131
	QuoteID            Tag = 117
	QuoteResponseLevel Tag = 301
	DefBidSize         Tag = 293
	DefOfferSize       Tag = 294
)

// UserDefinedFieldMin is the lowest tag number reserved for user-defined
// fields; dictionaries with the UserDefinedFields check disabled skip
// unknown-field validation for tags at or above this value.
const UserDefinedFieldMin Tag = 5000

var headerTags = map[Tag]bool{
	BeginString: true, BodyLength: true, MsgType: true,
	SenderCompID: true, TargetCompID: true, SenderSubID: true, TargetSubID: true,
	OnBehalfOfCompID: true, OnBehalfOfSubID: true, DeliverToCompID: true, DeliverToSubID: true,
	SenderLocationID: true, TargetLocationID: true, OnBehalfOfLocationID: true, DeliverToLocationID: true,
	MsgSeqNum: true, PossDupFlag: true, PossResend: true, SendingTime: true, OrigSendingTime: true,
}

var trailerTags = map[Tag]bool{
	SignatureLength: true, Signature: true, CheckSum: true,
}

// IsHeader reports whether tag is a member of the hardcoded standard
// header, independent of any dictionary's additional header fields.
func IsHeader(t Tag) bool { return headerTags[t] }

// IsTrailer reports whether tag is a member of the hardcoded standard
// trailer, independent of any dictionary's additional trailer fields.
func IsTrailer(t Tag) bool { return trailerTags[t] }
