package quickfix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
	"github.com/qyangdu/gofix/store"
)

type capturingResponder struct {
	sent        [][]byte
	disconnects int
}

func (r *capturingResponder) Send(data []byte) bool {
	cp := make([]byte, len(data))
	copy(cp, data)
	r.sent = append(r.sent, cp)
	return true
}

func (r *capturingResponder) Disconnect() { r.disconnects++ }

func (r *capturingResponder) lastMsgType(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.sent)
	msg, err := ParseMessage(r.sent[len(r.sent)-1], nil, nil)
	require.NoError(t, err)
	return msg.MsgType()
}

type recordingApp struct {
	onLogon, onLogout int
	onCreate          int
	fromAppCalls      int
	fromAppErr        error
}

func (a *recordingApp) OnCreate(SessionID)                 { a.onCreate++ }
func (a *recordingApp) OnLogon(SessionID)                  { a.onLogon++ }
func (a *recordingApp) OnLogout(SessionID)                 { a.onLogout++ }
func (a *recordingApp) ToAdmin(*Message, SessionID) error  { return nil }
func (a *recordingApp) ToApp(*Message, SessionID) error     { return nil }
func (a *recordingApp) FromAdmin(*Message, SessionID) error { return nil }
func (a *recordingApp) FromApp(msg *Message, id SessionID) error {
	a.fromAppCalls++
	return a.fromAppErr
}

func newTestSessionPair() (*Session, *recordingApp, *capturingResponder, SessionID) {
	id := SessionID{BeginString: "FIX.4.2", SenderCompID: "ACCEPTOR", TargetCompID: "INITIATOR"}
	app := &recordingApp{}
	settings := SessionSettings{
		ConnectionType: "acceptor",
		HeartBtInt:     30 * time.Second,
	}
	sess := NewSession(id, app, store.NewMemoryStore(), nil, nil, settings, nil)
	responder := &capturingResponder{}
	return sess, app, responder, id
}

func buildLogonFrom(counterparty, acceptor SessionID, seqNum int) []byte {
	msg := NewMessage(counterparty.BeginString, "A")
	msg.Header.Set(fix.NewStringField(tag.SenderCompID, counterparty.TargetCompID))
	msg.Header.Set(fix.NewStringField(tag.TargetCompID, counterparty.SenderCompID))
	msg.Header.Set(fix.NewIntField(tag.MsgSeqNum, seqNum))
	msg.Header.SetField(tag.SendingTime, &fix.UTCTimestampValue{Value: time.Now()})
	msg.Body.Set(fix.NewIntField(tag.EncryptMethod, 0))
	msg.Body.Set(fix.NewIntField(tag.HeartBtInt, 30))
	raw, _ := msg.Build()
	return raw
}

func TestSessionAcceptsLogonAndRespondsInKind(t *testing.T) {
	sess, app, responder, id := newTestSessionPair()
	sess.Connect(responder)

	require.Equal(t, 1, app.onCreate)
	require.False(t, sess.IsLoggedOn())

	sess.Incoming(time.Now(), buildLogonFrom(id, id, 1))

	require.True(t, sess.IsLoggedOn())
	require.Equal(t, 1, app.onLogon)
	require.Equal(t, "A", responder.lastMsgType(t))
	require.Equal(t, 2, sess.state.getNextTargetMsgSeqNum())
}

func TestSessionDispatchesApplicationMessageAndAdvancesSeqNum(t *testing.T) {
	sess, app, responder, id := newTestSessionPair()
	sess.Connect(responder)
	sess.Incoming(time.Now(), buildLogonFrom(id, id, 1))

	msg := NewMessage(id.BeginString, "D")
	msg.Header.Set(fix.NewStringField(tag.SenderCompID, id.TargetCompID))
	msg.Header.Set(fix.NewStringField(tag.TargetCompID, id.SenderCompID))
	msg.Header.Set(fix.NewIntField(tag.MsgSeqNum, 2))
	msg.Header.SetField(tag.SendingTime, &fix.UTCTimestampValue{Value: time.Now()})
	raw, err := msg.Build()
	require.NoError(t, err)

	sess.Incoming(time.Now(), raw)

	require.Equal(t, 1, app.fromAppCalls)
	require.Equal(t, 3, sess.state.getNextTargetMsgSeqNum())
}

func TestSessionQueuesTooHighSeqNumAndRequestsResend(t *testing.T) {
	sess, _, responder, id := newTestSessionPair()
	sess.Connect(responder)
	sess.Incoming(time.Now(), buildLogonFrom(id, id, 1))

	msg := NewMessage(id.BeginString, "D")
	msg.Header.Set(fix.NewStringField(tag.SenderCompID, id.TargetCompID))
	msg.Header.Set(fix.NewStringField(tag.TargetCompID, id.SenderCompID))
	msg.Header.Set(fix.NewIntField(tag.MsgSeqNum, 5))
	msg.Header.SetField(tag.SendingTime, &fix.UTCTimestampValue{Value: time.Now()})
	raw, err := msg.Build()
	require.NoError(t, err)

	sess.Incoming(time.Now(), raw)

	require.Equal(t, "2", responder.lastMsgType(t))
	require.True(t, sess.state.isResendRequested())
	require.Equal(t, 2, sess.state.getNextTargetMsgSeqNum())
}

func TestSessionDisconnectsOnBadCompID(t *testing.T) {
	sess, _, responder, id := newTestSessionPair()
	sess.settings.CheckCompID = true
	sess.Connect(responder)
	sess.Incoming(time.Now(), buildLogonFrom(id, id, 1))

	wrong := SessionID{BeginString: "FIX.4.2", SenderCompID: "SOMEONE-ELSE", TargetCompID: "NOBODY"}
	msg := NewMessage(id.BeginString, "D")
	msg.Header.Set(fix.NewStringField(tag.SenderCompID, wrong.SenderCompID))
	msg.Header.Set(fix.NewStringField(tag.TargetCompID, wrong.TargetCompID))
	msg.Header.Set(fix.NewIntField(tag.MsgSeqNum, 2))
	msg.Header.SetField(tag.SendingTime, &fix.UTCTimestampValue{Value: time.Now()})
	raw, err := msg.Build()
	require.NoError(t, err)

	sess.Incoming(time.Now(), raw)
	require.Equal(t, "5", responder.lastMsgType(t))
}

func TestSessionDisconnectNotifiesLogoutWhenWasLoggedOn(t *testing.T) {
	sess, app, responder, id := newTestSessionPair()
	sess.Connect(responder)
	sess.Incoming(time.Now(), buildLogonFrom(id, id, 1))
	require.True(t, sess.IsLoggedOn())

	sess.Disconnect()
	require.Equal(t, 1, app.onLogout)
	require.False(t, sess.IsLoggedOn())
	require.Equal(t, 1, responder.disconnects)
}

func TestSessionCheckTimersSendsHeartbeatWhenIdle(t *testing.T) {
	sess, _, responder, id := newTestSessionPair()
	sess.Connect(responder)
	sess.Incoming(time.Now(), buildLogonFrom(id, id, 1))
	// The acceptor adopts the Logon's HeartBtInt, so shorten it afterwards.
	sess.settings.HeartBtInt = 10 * time.Second
	sess.state.heartbeatInterval = 10 * time.Second

	now := time.Now()
	sess.state.markSent(now)
	sess.state.markReceived(now)

	sess.CheckTimers(now.Add(11 * time.Second))
	require.Equal(t, "0", responder.lastMsgType(t))
}

func TestSessionCheckTimersDisconnectsAfterSilence(t *testing.T) {
	sess, app, responder, id := newTestSessionPair()
	sess.Connect(responder)
	sess.Incoming(time.Now(), buildLogonFrom(id, id, 1))
	// The acceptor adopts the Logon's HeartBtInt, so shorten it afterwards.
	sess.settings.HeartBtInt = 10 * time.Second
	sess.state.heartbeatInterval = 10 * time.Second

	now := time.Now()
	sess.state.markReceived(now)

	sess.CheckTimers(now.Add(25 * time.Second))
	require.Equal(t, 1, app.onLogout)
	require.False(t, sess.IsLoggedOn())
}

func TestCheckCompIDMatchesReversedIdentity(t *testing.T) {
	id := SessionID{BeginString: "FIX.4.2", SenderCompID: "ACCEPTOR", TargetCompID: "INITIATOR"}
	msg := NewMessage(id.BeginString, "D")
	msg.Header.Set(fix.NewStringField(tag.SenderCompID, "INITIATOR"))
	msg.Header.Set(fix.NewStringField(tag.TargetCompID, "ACCEPTOR"))

	require.True(t, id.CheckCompID(msg))

	msg.Header.Set(fix.NewStringField(tag.SenderCompID, "SOMEONE"))
	require.False(t, id.CheckCompID(msg))
}
