// Package fix42 provides typed message wrappers for a handful of FIX
// 4.2 application messages, in the style of the reference engine's
// generated per-version message packages: each wrapper embeds
// *quickfix.Message and exposes its fields as typed accessors instead of
// making callers poke at the FieldMap directly.
package fix42

import (
	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

// BeginString is the FIX.4.2 wire version these wrappers build.
const BeginString = fix.BeginString_FIX42

// MsgType values for the application messages this package wraps.
const (
	MsgTypeQuoteRequest   = "R"
	MsgTypeMassQuote      = "i"
	MsgTypeNewOrderSingle = "D"
	MsgTypeExecutionReport = "8"
)

// Fix42-local tags not part of the session-layer set in fix/tag, used by
// the application messages this package wraps. Dictionary validation,
// not this list, is the source of truth for any real session; these
// constants exist purely for readable accessor code.
const (
	tagClOrdID   tag.Tag = 11
	tagSide      tag.Tag = 54
	tagOrdType   tag.Tag = 40
	tagOrderQty  tag.Tag = 38
	tagPrice     tag.Tag = 44
	tagOrdStatus tag.Tag = 39
	tagExecID    tag.Tag = 17
	tagExecType  tag.Tag = 150
	tagLeavesQty tag.Tag = 151
	tagCumQty    tag.Tag = 14
	tagAvgPx     tag.Tag = 6
)

const tagTransactTime tag.Tag = 60

func getString(fm *quickfix.FieldMap, t tag.Tag) (string, error) {
	var v fix.StringValue
	if err := fm.GetField(t, &v); err != nil {
		return "", err
	}
	return v.Value, nil
}

func getInt(fm *quickfix.FieldMap, t tag.Tag) (int, error) {
	var v fix.IntValue
	if err := fm.GetField(t, &v); err != nil {
		return 0, err
	}
	return v.Value, nil
}

func getDouble(fm *quickfix.FieldMap, t tag.Tag) (float64, error) {
	var v fix.DoubleValue
	if err := fm.GetField(t, &v); err != nil {
		return 0, err
	}
	return v.Value, nil
}

func getChar(fm *quickfix.FieldMap, t tag.Tag) (byte, error) {
	var v fix.CharValue
	if err := fm.GetField(t, &v); err != nil {
		return 0, err
	}
	return v.Value, nil
}
