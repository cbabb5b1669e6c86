package quickfix

import (
	"github.com/qyangdu/gofix/datadictionary"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

// Validator checks a parsed Message's structure and, when dictionaries
// are supplied, its schema conformance: unknown message types, unknown
// or misplaced fields, missing required fields, malformed values, enum
// violations, and repeating-group count mismatches. Structural checks
// (BeginString/MsgType presence, field order, duplicate tags) run
// regardless of dictionaries; schema checks are skipped field-by-field
// per the governing Dictionary's Checks flags. BodyLength and CheckSum
// values are not checked.
type Validator struct {
	SessionDict *datadictionary.Dictionary
	AppDict     *datadictionary.Dictionary
}

// NewValidator constructs a Validator. Either dictionary may be nil, in
// which case the checks it would have driven are skipped.
func NewValidator(sessionDict, appDict *datadictionary.Dictionary) *Validator {
	return &Validator{SessionDict: sessionDict, AppDict: appDict}
}

// Validate runs every structural and schema check against msg and returns
// the first violation found, as a MessageRejectError. BeginString versions
// below FIX.4.2 cannot carry BusinessMessageReject, so application-layer
// violations there are reported as plain (text-only) session rejects
// instead of being flagged BusinessReject.
func (v *Validator) Validate(msg *Message) error {
	beginString := msg.BeginString()
	if beginString == "" {
		return NewRequiredTagMissingError(int(tag.BeginString))
	}
	msgType := msg.MsgType()
	if msgType == "" {
		return NewRequiredTagMissingError(int(tag.MsgType))
	}

	if msg.InvalidStructure {
		return MessageRejectError{RejectReason: RejectTagOutOfOrder, Text: "Tag specified out of required order"}
	}

	if err := v.checkDuplicateTags(msg.Header); err != nil {
		return err
	}
	if err := v.checkDuplicateTags(msg.Body); err != nil {
		return err
	}
	if err := v.checkDuplicateTags(msg.Trailer); err != nil {
		return err
	}

	appDict := v.AppDict
	businessCapable := fix.CompareBeginString(beginString, fix.BeginString_FIX42) >= 0

	if appDict != nil {
		if appDict.Checks.UnknownMsgType && !appDict.IsMsgType(msgType) {
			return v.reject(MessageRejectError{RejectReason: RejectInvalidMsgType, Text: "Invalid MsgType"}, false, businessCapable)
		}
		if appDict.Checks.RequiredFields {
			if err := v.checkRequired(msg, appDict, msgType); err != nil {
				return v.reject(err.(MessageRejectError), true, businessCapable)
			}
		}
	}

	if v.SessionDict != nil {
		if err := v.iterate(msg.Header, v.SessionDict, msgType, "header"); err != nil {
			return err
		}
		if err := v.iterate(msg.Trailer, v.SessionDict, msgType, "trailer"); err != nil {
			return err
		}
	}

	if appDict != nil {
		if err := v.iterate(msg.Body, appDict, msgType, "body"); err != nil {
			return v.reject(err.(MessageRejectError), true, businessCapable)
		}
		for _, t := range msg.Body.Tags() {
			if declared, ok := msg.DeclaredGroupCount(t); ok {
				if uint32(declared) != msg.Body.GroupCount(t) {
					return v.reject(MessageRejectError{RejectReason: RejectIncorrectNumInGroup, RefTagID: int(t), Text: "Incorrect NumInGroup count for repeating group"}, true, businessCapable)
				}
			}
		}
	}

	return nil
}

// reject downgrades a would-be BusinessMessageReject to a plain session
// reject when the session's BeginString cannot carry one.
func (v *Validator) reject(err MessageRejectError, applicationLayer, businessCapable bool) error {
	if applicationLayer && businessCapable {
		err.BusinessReject = true
	}
	return err
}

func (v *Validator) checkDuplicateTags(fm *FieldMap) error {
	for _, t := range fm.Tags() {
		if fm.Count(t) > 1 {
			return MessageRejectError{RejectReason: RejectTagAppearsMoreThanOnce, RefTagID: int(t), Text: "Tag appears more than once"}
		}
	}
	return nil
}

// checkRequired verifies every dictionary-required header, trailer, and
// body field is present, recursing into repeating groups.
func (v *Validator) checkRequired(msg *Message, appDict *datadictionary.Dictionary, msgType string) error {
	if v.SessionDict != nil {
		for t, required := range v.SessionDict.HeaderRequiredTags() {
			if required && !msg.Header.Has(t) {
				return NewRequiredTagMissingError(int(t))
			}
		}
		for t, required := range v.SessionDict.TrailerRequiredTags() {
			if required && !msg.Trailer.Has(t) {
				return NewRequiredTagMissingError(int(t))
			}
		}
	}

	def, ok := appDict.Message(msgType)
	if !ok {
		return nil
	}
	for t, required := range def.Required {
		if required && !msg.Body.Has(t) {
			return NewRequiredTagMissingError(int(t))
		}
	}
	return checkGroupsRequired(msg.Body, def.Groups)
}

func checkGroupsRequired(fm *FieldMap, groups map[tag.Tag]*datadictionary.GroupDef) error {
	for countTag, group := range groups {
		count := fm.GroupCount(countTag)
		for i := 1; i <= int(count); i++ {
			occ, ok := fm.Group(i, countTag)
			if !ok {
				continue
			}
			for t, required := range group.Required {
				if required && !occ.Has(t) {
					return NewRequiredTagMissingError(int(t))
				}
			}
			if err := checkGroupsRequired(occ, group.Nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// iterate walks every field at this FieldMap's level, applying the
// dictionary's per-field checks. scope is "body" for body fields,
// which are additionally checked against the message's own allowed-field
// and group-count sets (header/trailer fields are governed purely by the
// hardcoded standard sets plus the dictionary's header/trailer
// declarations, not by per-message membership).
func (v *Validator) iterate(fm *FieldMap, dict *datadictionary.Dictionary, msgType string, scope string) error {
	groupParentKey := msgType
	switch scope {
	case "header":
		groupParentKey = datadictionary.HeaderMsgType
	case "trailer":
		groupParentKey = datadictionary.TrailerMsgType
	}

	for _, t := range fm.Tags() {
		raw, _ := fm.GetRaw(t)

		if dict.Checks.FieldsHaveValues && len(raw) == 0 {
			return MessageRejectError{RejectReason: RejectNoValue, RefTagID: int(t), Text: "Tag specified without a value"}
		}

		def, known := dict.FieldDefinition(t)
		if known {
			if err := def.Type.Validate(raw); err != nil {
				return MessageRejectError{RejectReason: RejectIncorrectDataFormat, RefTagID: int(t), Text: "Incorrect data format for value"}
			}
			if !def.AllowedValue(string(raw)) {
				return MessageRejectError{RejectReason: RejectIncorrectValue, RefTagID: int(t), Text: "Value is incorrect (out of range) for this tag"}
			}
		}

		if v.shouldCheckTag(dict, t) {
			if !known {
				return MessageRejectError{RejectReason: RejectTagNotDefined, RefTagID: int(t), Text: "Tag not defined for this message type"}
			}
			if scope == "body" && dict.Checks.UnknownFields && !dict.IsMsgField(msgType, t) {
				return MessageRejectError{RejectReason: RejectTagNotDefined, RefTagID: int(t), Text: "Tag not defined for this message type"}
			}
		}

		if g, ok := dict.GroupInfo(datadictionary.GroupKey{ParentMsgType: groupParentKey, CountTag: t}); ok {
			count := fm.GroupCount(t)
			for i := 1; i <= int(count); i++ {
				occ, ok := fm.Group(i, t)
				if !ok {
					continue
				}
				if err := v.iterateGroup(occ, g); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (v *Validator) iterateGroup(fm *FieldMap, group *datadictionary.GroupDef) error {
	for _, t := range fm.Tags() {
		raw, _ := fm.GetRaw(t)
		if nested, ok := group.Nested[t]; ok {
			count := fm.GroupCount(t)
			for i := 1; i <= int(count); i++ {
				occ, ok := fm.Group(i, t)
				if !ok {
					continue
				}
				if err := v.iterateGroup(occ, nested); err != nil {
					return err
				}
			}
			continue
		}
		if v.AppDict != nil {
			if def, known := v.AppDict.FieldDefinition(t); known {
				if err := def.Type.Validate(raw); err != nil {
					return MessageRejectError{RejectReason: RejectIncorrectDataFormat, RefTagID: int(t), Text: "Incorrect data format for value"}
				}
			}
		}
	}
	return nil
}

func (v *Validator) shouldCheckTag(dict *datadictionary.Dictionary, t tag.Tag) bool {
	if !dict.Checks.UserDefinedFields && datadictionary.IsUserDefined(t) {
		return false
	}
	return dict.Checks.UnknownFields
}
