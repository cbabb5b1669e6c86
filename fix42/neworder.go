package fix42

import (
	"time"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

// NewOrderSingle wraps a MsgType=D message: a single order submission.
type NewOrderSingle struct{ *quickfix.Message }

// NewNewOrderSingle constructs an outgoing order for symbol, buy/sell
// side, quantity, and limit price, timestamped with transactTime.
func NewNewOrderSingle(clOrdID, symbol string, side byte, qty, price float64, transactTime time.Time) *NewOrderSingle {
	m := quickfix.NewMessage(BeginString, MsgTypeNewOrderSingle)
	m.Body.Set(fix.NewStringField(tagClOrdID, clOrdID))
	m.Body.Set(fix.NewStringField(tag.Symbol, symbol))
	m.Body.Set(fix.NewCharField(tagSide, side))
	m.Body.Set(fix.NewDoubleField(tagOrderQty, qty, 0))
	m.Body.Set(fix.NewCharField(tagOrdType, '2')) // Limit
	m.Body.Set(fix.NewDoubleField(tagPrice, price, 2))
	m.Body.Set(fix.NewUTCTimestampField(tagTransactTime, transactTime, false))
	return &NewOrderSingle{m}
}

func (m *NewOrderSingle) ClOrdID() (string, error) { return getString(m.Body, tagClOrdID) }
func (m *NewOrderSingle) Symbol() (string, error)  { return getString(m.Body, tag.Symbol) }
func (m *NewOrderSingle) Side() (byte, error)      { return getChar(m.Body, tagSide) }
func (m *NewOrderSingle) OrderQty() (float64, error) { return getDouble(m.Body, tagOrderQty) }
func (m *NewOrderSingle) Price() (float64, error)    { return getDouble(m.Body, tagPrice) }

// ExecutionReport wraps a MsgType=8 message: a fill or order-status update.
type ExecutionReport struct{ *quickfix.Message }

// NewExecutionReport constructs an outgoing execution report for order
// clOrdID, reporting execID/execType/ordStatus and the cumulative fill
// state.
func NewExecutionReport(clOrdID, execID string, execType, ordStatus byte, leavesQty, cumQty, avgPx float64) *ExecutionReport {
	m := quickfix.NewMessage(BeginString, MsgTypeExecutionReport)
	m.Body.Set(fix.NewStringField(tagClOrdID, clOrdID))
	m.Body.Set(fix.NewStringField(tagExecID, execID))
	m.Body.Set(fix.NewCharField(tagExecType, execType))
	m.Body.Set(fix.NewCharField(tagOrdStatus, ordStatus))
	m.Body.Set(fix.NewDoubleField(tagLeavesQty, leavesQty, 0))
	m.Body.Set(fix.NewDoubleField(tagCumQty, cumQty, 0))
	m.Body.Set(fix.NewDoubleField(tagAvgPx, avgPx, 2))
	return &ExecutionReport{m}
}

func (m *ExecutionReport) ClOrdID() (string, error) { return getString(m.Body, tagClOrdID) }
func (m *ExecutionReport) ExecID() (string, error)  { return getString(m.Body, tagExecID) }
func (m *ExecutionReport) OrdStatus() (byte, error) { return getChar(m.Body, tagOrdStatus) }
