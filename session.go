package quickfix

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qyangdu/gofix/datadictionary"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
	"github.com/qyangdu/gofix/store"
)

// Responder is the transport-level sink a Session writes outbound wire
// bytes to and disconnects through. A network acceptor/initiator
// implements this over a net.Conn; tests can fake it trivially.
type Responder interface {
	// Send transmits raw wire bytes, returning false if the transport is
	// no longer usable.
	Send(data []byte) bool
	// Disconnect tears down the underlying connection.
	Disconnect()
}

// Logger receives session lifecycle and protocol events. The root
// package depends only on this interface; internal/fixlog supplies the
// zerolog-backed implementation wired up by cmd/fixecho and cmd/fixinit.
type Logger interface {
	OnEvent(id SessionID, text string)
	OnIncoming(id SessionID, raw []byte)
	OnOutgoing(id SessionID, raw []byte)
}

// NopLogger discards everything; the zero value is ready to use.
type NopLogger struct{}

func (NopLogger) OnEvent(SessionID, string)    {}
func (NopLogger) OnIncoming(SessionID, []byte) {}
func (NopLogger) OnOutgoing(SessionID, []byte) {}

// MetricsSink receives session traffic counters; internal/fixmetrics.Metrics
// implements it with nil-safe methods. A Session with no sink attached
// (the default, or after SetMetrics(nil)) skips every metrics call.
type MetricsSink interface {
	RecordMessage(session, direction string, bytes int)
	SetSessionUp(session string, up bool)
	SetSequenceNumbers(session string, nextSender, nextTarget int)
}

// SessionSettings carries the per-session configuration knobs the
// reference engine exposes in its .cfg files, loaded in this module by
// the config package.
type SessionSettings struct {
	ConnectionType string // "initiator" or "acceptor"

	HeartBtInt time.Duration

	StartTime time.Time
	EndTime   time.Time

	ResetOnLogon      bool
	ResetOnLogout     bool
	ResetOnDisconnect bool
	RefreshOnLogon    bool

	PersistMessages           bool
	ValidateLengthAndChecksum bool
	CheckCompID               bool
	CheckLatency              bool
	MaxLatency                time.Duration
	MillisecondsInTimeStamp   bool

	LogonTimeout  time.Duration
	LogoutTimeout time.Duration

	MaxMessageSize int

	SenderDefaultApplVerID string
}

func defaultSettings() SessionSettings {
	return SessionSettings{
		HeartBtInt:     30 * time.Second,
		CheckLatency:   true,
		MaxLatency:     120 * time.Second,
		LogonTimeout:   10 * time.Second,
		LogoutTimeout:  2 * time.Second,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// Session is the state machine governing a single counterparty
// relationship: sequence-number discipline, logon/logout negotiation,
// heartbeating, resend/gap-fill, and the application message pipeline.
// One Session exists per SessionID for the process's lifetime; a
// Responder is attached and detached across reconnects.
type Session struct {
	mu sync.Mutex

	id       SessionID
	app      Application
	msgStore store.MessageStore
	settings SessionSettings
	log      Logger

	sessionDict *datadictionary.Dictionary
	appDict     *datadictionary.Dictionary
	validator   *Validator

	state *sessionState

	initiator bool
	responder Responder
	metrics   MetricsSink
}

// SetMetrics attaches a MetricsSink; pass nil to disable metrics.
func (s *Session) SetMetrics(m MetricsSink) {
	s.mu.Lock()
	s.metrics = m
	s.mu.Unlock()
}

// NewSession wires together a Session ready to Connect once a transport
// attaches. sessionDict governs header/trailer/admin fields; appDict
// governs body fields and is the same Dictionary as sessionDict for a
// non-FIXT session.
func NewSession(id SessionID, app Application, msgStore store.MessageStore, sessionDict, appDict *datadictionary.Dictionary, settings SessionSettings, log Logger) *Session {
	if log == nil {
		log = NopLogger{}
	}
	s := &Session{
		id:          id,
		app:         app,
		msgStore:    msgStore,
		settings:    settings,
		log:         log,
		sessionDict: sessionDict,
		appDict:     appDict,
		validator:   NewValidator(sessionDict, appDict),
		state:       newSessionState(settings.HeartBtInt),
		initiator:   settings.ConnectionType == "initiator",
	}
	s.state.nextSenderSeq = msgStore.NextSenderMsgSeqNum()
	s.state.nextTargetSeq = msgStore.NextTargetMsgSeqNum()
	s.state.creationTime = msgStore.CreationTime()
	app.OnCreate(id)
	return s
}

// ID returns the session's identity.
func (s *Session) ID() SessionID { return s.id }

// TargetDefaultApplVerID returns the counterparty's negotiated
// DefaultApplVerID from its Logon, or "" if this is not a FIXT session
// or none has been received yet.
func (s *Session) TargetDefaultApplVerID() string { return s.state.getTargetDefaultApplVerID() }

// IsLoggedOn reports whether both Logon handshakes have completed.
func (s *Session) IsLoggedOn() bool {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.sentLogon && s.state.receivedLogon
}

// Connect attaches a transport and, for an initiator, sends the Logon.
func (s *Session) Connect(r Responder) {
	s.mu.Lock()
	s.responder = r
	s.mu.Unlock()

	if s.settings.ResetOnLogon {
		s.resetState()
	}
	if s.initiator {
		s.generateLogon()
	}
}

// Disconnect detaches the transport, notifying the Application if a
// logged-on relationship is being torn down, and honors ResetOnDisconnect.
func (s *Session) Disconnect() {
	s.mu.Lock()
	r := s.responder
	s.responder = nil
	s.mu.Unlock()
	if r != nil {
		r.Disconnect()
	}

	s.state.mu.Lock()
	wasUp := s.state.receivedLogon || s.state.sentLogon
	s.state.receivedLogon = false
	s.state.sentLogon = false
	s.state.sentLogout = false
	s.state.receivedReset = false
	s.state.sentReset = false
	s.state.queued = make(map[int]*Message)
	s.state.resendRequested = nil
	s.state.mu.Unlock()

	if wasUp {
		if s.metrics != nil {
			s.metrics.SetSessionUp(s.id.String(), false)
		}
		s.app.OnLogout(s.id)
	}
	if s.settings.ResetOnDisconnect {
		s.resetState()
	}
}

func (s *Session) resetState() {
	s.state.reset()
	s.msgStore.Reset()
}

// Incoming parses and dispatches one frame-parsed message's raw wire
// bytes, as delivered by a Parser reading from the transport.
func (s *Session) Incoming(now time.Time, raw []byte) {
	s.log.OnIncoming(s.id, raw)
	if s.metrics != nil {
		s.metrics.RecordMessage(s.id.String(), "in", len(raw))
	}

	msg, err := ParseMessage(raw, s.sessionDict, s.appDict)
	if err != nil {
		s.log.OnEvent(s.id, fmt.Sprintf("error parsing message: %s", err))
		return
	}
	msg.ReceiveTime = now

	if err := s.validator.Validate(msg); err != nil {
		if rej, ok := err.(MessageRejectError); ok {
			s.handleReject(msg, rej)
			return
		}
		s.log.OnEvent(s.id, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatch(msg, now)
}

func (s *Session) handleReject(msg *Message, rej MessageRejectError) {
	if msg.MsgType() == "A" || rej.RejectReason == RejectRequiredTagMissing && msg.MsgType() == "" {
		s.generateLogout()
		return
	}
	s.generateReject(msg, rej)
}

// fromAdmin runs an admin message past Application.FromAdmin before the
// session acts on it. A MessageRejectError is handled the same way a
// parse/validate failure is: generateLogout for a Logon, generateReject
// otherwise.
func (s *Session) fromAdmin(msg *Message) bool {
	if err := s.app.FromAdmin(msg, s.id); err != nil {
		if rej, ok := err.(MessageRejectError); ok {
			s.handleReject(msg, rej)
		}
		return false
	}
	return true
}

func (s *Session) dispatch(msg *Message, now time.Time) {
	switch msg.MsgType() {
	case "A":
		s.nextLogon(msg, now)
	case "0":
		if !s.verify(msg, true, true) {
			return
		}
		if !s.fromAdmin(msg) {
			return
		}
		s.state.incrNextTargetMsgSeqNum()
		s.nextQueued(now)
	case "1":
		if !s.verify(msg, true, true) {
			return
		}
		if !s.fromAdmin(msg) {
			return
		}
		s.generateHeartbeat(msg)
		s.state.incrNextTargetMsgSeqNum()
		s.nextQueued(now)
	case "2":
		s.nextResendRequest(msg, now)
	case "3":
		if !s.verify(msg, true, true) {
			return
		}
		if !s.fromAdmin(msg) {
			return
		}
		s.state.incrNextTargetMsgSeqNum()
		s.nextQueued(now)
	case "4":
		s.nextSequenceReset(msg, now)
	case "5":
		s.nextLogout(msg, now)
	default:
		if !s.verify(msg, true, true) {
			return
		}
		if err := s.app.FromApp(msg, s.id); err != nil {
			if rej, ok := err.(MessageRejectError); ok {
				s.generateReject(msg, rej)
			}
		}
		s.state.incrNextTargetMsgSeqNum()
		s.nextQueued(now)
	}
}

// verify runs the shared CompID/SendingTime/sequence-too-high/too-low
// checks every non-Logon admin and application message is subject to,
// per validLogonState + the sequence gating performed before a message's
// own handler runs its specific logic.
func (s *Session) verify(msg *Message, checkTooHigh, checkTooLow bool) bool {
	if s.settings.CheckCompID && !s.id.CheckCompID(msg) {
		s.doBadCompID(msg)
		return false
	}

	if s.settings.CheckLatency {
		raw, ok := msg.Header.GetRaw(tag.SendingTime)
		if ok {
			if t, err := fix.ParseUTCTimestamp(raw); err == nil {
				if absDuration(msg.ReceiveTime.Sub(t)) > s.settings.MaxLatency {
					s.doBadTime(msg)
					return false
				}
			}
		}
	}

	var seqNum int
	if checkTooHigh || checkTooLow {
		raw, ok := msg.Header.GetRaw(tag.MsgSeqNum)
		if !ok {
			return false
		}
		n, err := fix.ParseInt(raw)
		if err != nil {
			return false
		}
		seqNum = n
	}

	if checkTooHigh && s.isTargetTooHigh(seqNum) {
		s.doTargetTooHigh(msg, seqNum)
		return false
	}
	if checkTooLow && s.isTargetTooLow(seqNum) {
		return s.doTargetTooLow(msg, seqNum)
	}

	if (checkTooHigh || checkTooLow) && s.state.isResendRequested() {
		if s.state.resendSatisfied(seqNum) {
			s.log.OnEvent(s.id, "ResendRequest has been satisfied")
			s.state.clearResendRange()
		}
	}

	s.state.markReceived(msg.ReceiveTime)
	return true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func (s *Session) isTargetTooHigh(seqNum int) bool { return seqNum > s.state.getNextTargetMsgSeqNum() }
func (s *Session) isTargetTooLow(seqNum int) bool  { return seqNum < s.state.getNextTargetMsgSeqNum() }

func (s *Session) doBadTime(msg *Message) {
	s.generateReject(msg, MessageRejectError{RejectReason: RejectSendingTimeAccuracy, Text: "SendingTime accuracy problem"})
	s.generateLogout()
}

func (s *Session) doBadCompID(msg *Message) {
	s.generateReject(msg, MessageRejectError{RejectReason: RejectCompIDProblem, Text: "CompID problem"})
	s.generateLogout()
}

// doTargetTooHigh queues the out-of-sequence message and, unless a
// ResendRequest already covers this gap, asks the counterparty to fill
// it with one.
func (s *Session) doTargetTooHigh(msg *Message, seqNum int) {
	s.log.OnEvent(s.id, fmt.Sprintf("MsgSeqNum too high, expecting %d but received %d", s.state.getNextTargetMsgSeqNum(), seqNum))
	s.state.queue(seqNum, msg)
	if !s.state.isResendRequested() {
		s.generateResendRequest(seqNum)
	}
}

// doTargetTooLow accepts a PossDup replay whose OrigSendingTime is not
// after its SendingTime. A message below the expected sequence without
// PossDupFlag is answered with a Logout; a PossDup replay lacking
// OrigSendingTime gets a Reject, and one whose OrigSendingTime is after
// its SendingTime gets a Reject and a Logout. None of these paths closes
// the connection itself.
func (s *Session) doTargetTooLow(msg *Message, seqNum int) bool {
	var possDup bool
	if raw, ok := msg.Header.GetRaw(tag.PossDupFlag); ok {
		possDup, _ = fix.ParseBool(raw)
	}
	if !possDup {
		s.generateLogout(fmt.Sprintf("MsgSeqNum too low, expecting %d but received %d", s.state.getNextTargetMsgSeqNum(), seqNum))
		return false
	}
	return s.doPossDup(msg)
}

func (s *Session) doPossDup(msg *Message) bool {
	if msg.MsgType() == "4" {
		return true
	}
	origRaw, hasOrig := msg.Header.GetRaw(tag.OrigSendingTime)
	if !hasOrig {
		s.generateReject(msg, NewRequiredTagMissingError(int(tag.OrigSendingTime)))
		return false
	}
	sendRaw, _ := msg.Header.GetRaw(tag.SendingTime)
	orig, errO := fix.ParseUTCTimestamp(origRaw)
	sent, errS := fix.ParseUTCTimestamp(sendRaw)
	if errO == nil && errS == nil && orig.Truncate(time.Second).After(sent.Truncate(time.Second)) {
		s.generateReject(msg, MessageRejectError{RejectReason: RejectSendingTimeAccuracy, Text: "SendingTime accuracy problem"})
		s.generateLogout()
		return false
	}
	return true
}

// nextQueued replays any buffered out-of-sequence messages now that the
// target sequence number has advanced to the one they need.
func (s *Session) nextQueued(now time.Time) {
	for {
		next := s.state.getNextTargetMsgSeqNum()
		msg, ok := s.state.dequeue(next)
		if !ok {
			return
		}
		msg.ReceiveTime = now
		s.dispatch(msg, now)
	}
}

func (s *Session) nextLogon(msg *Message, now time.Time) {
	if s.settings.RefreshOnLogon {
		s.msgStore.Refresh()
	}
	if !s.state.isEnabled() {
		s.log.OnEvent(s.id, "Session is not enabled for logon")
		s.Disconnect()
		return
	}

	var resetSeqNumFlag bool
	if raw, ok := msg.Body.GetRaw(tag.ResetSeqNumFlag); ok {
		resetSeqNumFlag, _ = fix.ParseBool(raw)
	}

	s.state.mu.Lock()
	s.state.receivedReset = resetSeqNumFlag
	s.state.mu.Unlock()

	if resetSeqNumFlag {
		s.log.OnEvent(s.id, "Logon contains ResetSeqNumFlag=Y, resetting sequence numbers to 1")
		if !s.sentReset() {
			s.resetState()
		}
	}

	if !s.verify(msg, false, true) {
		return
	}
	if !s.fromAdmin(msg) {
		return
	}
	s.state.mu.Lock()
	s.state.receivedLogon = true
	s.state.mu.Unlock()

	if s.id.IsFIXT() {
		if raw, ok := msg.Body.GetRaw(tag.DefaultApplVerID); ok {
			s.state.setTargetDefaultApplVerID(string(raw))
			s.log.OnEvent(s.id, fmt.Sprintf("Target DefaultApplVerID set to %s", raw))
		}
	}

	if !s.initiator || (resetSeqNumFlag && !s.sentReset()) {
		if raw, ok := msg.Body.GetRaw(tag.HeartBtInt); ok {
			if n, err := fix.ParseInt(raw); err == nil {
				s.settings.HeartBtInt = time.Duration(n) * time.Second
				s.state.heartbeatInterval = s.settings.HeartBtInt
			}
		}
		s.log.OnEvent(s.id, "Received logon request")
		s.generateLogonResponse()
		s.log.OnEvent(s.id, "Responding to logon request")
	} else {
		s.log.OnEvent(s.id, "Received logon response")
	}

	s.state.mu.Lock()
	s.state.sentReset = false
	s.state.receivedReset = false
	s.state.mu.Unlock()

	seqRaw, _ := msg.Header.GetRaw(tag.MsgSeqNum)
	seqNum, _ := fix.ParseInt(seqRaw)
	if s.isTargetTooHigh(seqNum) && !resetSeqNumFlag {
		s.doTargetTooHigh(msg, seqNum)
	} else {
		s.state.incrNextTargetMsgSeqNum()
		s.nextQueued(now)
	}

	if s.IsLoggedOn() {
		if s.metrics != nil {
			s.metrics.SetSessionUp(s.id.String(), true)
		}
		s.app.OnLogon(s.id)
	}
}

func (s *Session) sentReset() bool {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.sentReset
}

func (s *Session) nextLogout(msg *Message, now time.Time) {
	if !s.verify(msg, false, false) {
		return
	}
	if !s.fromAdmin(msg) {
		return
	}
	s.state.mu.Lock()
	alreadySent := s.state.sentLogout
	s.state.mu.Unlock()

	if !alreadySent {
		s.log.OnEvent(s.id, "Received logout request")
		s.generateLogoutResponse()
		s.log.OnEvent(s.id, "Sending logout response")
	} else {
		s.log.OnEvent(s.id, "Received logout response")
	}

	s.state.incrNextTargetMsgSeqNum()
	if s.settings.ResetOnLogout {
		s.resetState()
	}
	s.Disconnect()
}

func (s *Session) nextSequenceReset(msg *Message, now time.Time) {
	var gapFill bool
	if raw, ok := msg.Body.GetRaw(tag.GapFillFlag); ok {
		gapFill, _ = fix.ParseBool(raw)
	}
	if !s.verify(msg, gapFill, gapFill) {
		return
	}
	if !s.fromAdmin(msg) {
		return
	}

	newRaw, ok := msg.Body.GetRaw(tag.NewSeqNo)
	if !ok {
		return
	}
	newSeqNo, err := fix.ParseInt(newRaw)
	if err != nil {
		return
	}

	s.log.OnEvent(s.id, fmt.Sprintf("Received SequenceReset FROM: %d TO: %d", s.state.getNextTargetMsgSeqNum(), newSeqNo))

	expected := s.state.getNextTargetMsgSeqNum()
	switch {
	case newSeqNo > expected:
		s.state.setNextTargetMsgSeqNum(newSeqNo)
	case newSeqNo < expected:
		s.generateReject(msg, MessageRejectError{RejectReason: RejectIncorrectValue, Text: "Value is incorrect (out of range) for this tag"})
	}
}

// nextResendRequest replays persisted messages in [BeginSeqNo,EndSeqNo],
// collapsing runs of admin messages (or messages the Application declines
// to resend) into SequenceReset GapFills, per the reference engine's
// resend-with-gap-fill algorithm.
func (s *Session) nextResendRequest(msg *Message, now time.Time) {
	if !s.verify(msg, false, false) {
		return
	}
	if !s.fromAdmin(msg) {
		return
	}

	beginRaw, _ := msg.Body.GetRaw(tag.BeginSeqNo)
	endRaw, _ := msg.Body.GetRaw(tag.EndSeqNo)
	beginSeqNo, _ := fix.ParseInt(beginRaw)
	endSeqNo, _ := fix.ParseInt(endRaw)

	s.log.OnEvent(s.id, fmt.Sprintf("Received ResendRequest FROM: %d TO: %d", beginSeqNo, endSeqNo))

	beginString := s.id.BeginString
	expectedSender := s.state.getNextSenderMsgSeqNum()
	if (fix.CompareBeginString(beginString, fix.BeginString_FIX42) >= 0 && endSeqNo == 0) ||
		(fix.CompareBeginString(beginString, fix.BeginString_FIX42) <= 0 && endSeqNo == 999999) ||
		endSeqNo >= expectedSender {
		endSeqNo = expectedSender - 1
	}

	if !s.settings.PersistMessages {
		target := endSeqNo + 1
		if next := s.state.getNextSenderMsgSeqNum(); target > next {
			target = next
		}
		s.generateSequenceReset(beginSeqNo, target)
	} else {
		raws, _ := s.msgStore.Get(beginSeqNo, endSeqNo)

		begin := 0
		current := beginSeqNo
		lastSeqNum := beginSeqNo - 1

		for _, raw := range raws {
			replay, err := ParseMessage(raw, s.sessionDict, s.appDict)
			if err != nil {
				continue
			}
			seqRaw, _ := replay.Header.GetRaw(tag.MsgSeqNum)
			seqNum, _ := fix.ParseInt(seqRaw)
			lastSeqNum = seqNum

			if current != seqNum && begin == 0 {
				begin = current
			}

			if replay.IsAdmin() {
				if begin == 0 {
					begin = seqNum
				}
			} else if s.resend(replay) {
				if begin != 0 {
					s.generateSequenceReset(begin, seqNum)
				}
				s.transmit(replay)
				s.log.OnEvent(s.id, fmt.Sprintf("Resending Message: %d", seqNum))
				begin = 0
			} else if begin == 0 {
				begin = seqNum
			}
			current = seqNum + 1
		}

		if begin != 0 {
			s.generateSequenceReset(begin, lastSeqNum+1)
		}

		if endSeqNo > lastSeqNum {
			target := endSeqNo + 1
			if next := s.state.getNextSenderMsgSeqNum(); target > next {
				target = next
			}
			s.generateSequenceReset(beginSeqNo, target)
		}
	}

	seqRaw, _ := msg.Header.GetRaw(tag.MsgSeqNum)
	seqNum, _ := fix.ParseInt(seqRaw)
	if !s.isTargetTooHigh(seqNum) && !s.isTargetTooLow(seqNum) {
		s.state.incrNextTargetMsgSeqNum()
	}
}

// resend prepares a replayed message for retransmission by stamping
// PossDupFlag and preserving the original SendingTime; the Application
// may still veto an individual resend (e.g. a stale quote) by returning
// false, which the caller folds into the surrounding gap-fill run.
func (s *Session) resend(msg *Message) bool {
	sendingRaw, _ := msg.Header.GetRaw(tag.SendingTime)
	msg.Header.Set(fix.NewRawField(tag.OrigSendingTime, sendingRaw))
	msg.Header.Set(fix.NewBoolField(tag.PossDupFlag, true))
	if err := s.app.ToApp(msg, s.id); err != nil {
		if _, ok := err.(DoNotSendError); ok {
			return false
		}
	}
	return true
}

func (s *Session) transmit(msg *Message) {
	raw, err := msg.Build()
	if err != nil {
		return
	}
	s.tx(raw)
}

func (s *Session) tx(raw []byte) bool {
	s.log.OnOutgoing(s.id, raw)
	if s.metrics != nil {
		s.metrics.RecordMessage(s.id.String(), "out", len(raw))
		s.metrics.SetSequenceNumbers(s.id.String(), s.state.getNextSenderMsgSeqNum(), s.state.getNextTargetMsgSeqNum())
	}
	if s.responder == nil {
		return false
	}
	s.state.markSent(time.Now())
	return s.responder.Send(raw)
}

// Send transmits an application message, running it through
// Application.ToApp, persisting it, incrementing the outbound sequence
// number, and transmitting only while logged on. Returns false (without
// error) if the Application vetoed the send via DoNotSendError.
func (s *Session) Send(msg *Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, false)
}

func (s *Session) sendRaw(msg *Message, isAdmin bool) (bool, error) {
	seqNum := s.state.getNextSenderMsgSeqNum()
	msg.Header.Set(fix.NewIntField(tag.MsgSeqNum, seqNum))
	msg.Header.Set(fix.NewStringField(tag.SenderCompID, s.id.SenderCompID))
	msg.Header.Set(fix.NewStringField(tag.TargetCompID, s.id.TargetCompID))
	msg.Header.SetField(tag.SendingTime, &fix.UTCTimestampValue{Value: time.Now(), Millis: s.settings.MillisecondsInTimeStamp})

	if msg.IsAdmin() {
		if err := s.app.ToAdmin(msg, s.id); err != nil {
			if _, ok := err.(DoNotSendError); ok {
				return false, nil
			}
			return false, err
		}
	} else {
		if !s.IsLoggedOn() {
			return false, nil
		}
		if err := s.app.ToApp(msg, s.id); err != nil {
			if _, ok := err.(DoNotSendError); ok {
				return false, nil
			}
			return false, err
		}
	}

	raw, err := msg.Build()
	if err != nil {
		return false, err
	}

	if s.settings.PersistMessages {
		s.msgStore.Set(seqNum, raw)
	}
	s.state.incrNextSenderMsgSeqNum()
	s.msgStore.SetNextSenderMsgSeqNum(s.state.getNextSenderMsgSeqNum())

	if s.IsLoggedOn() || msg.IsAdmin() {
		s.tx(raw)
	}
	return true, nil
}

func (s *Session) generateLogon() {
	msg := NewMessage(s.id.BeginString, "A")
	msg.Body.Set(fix.NewIntField(tag.EncryptMethod, 0))
	msg.Body.SetField(tag.HeartBtInt, &fix.IntValue{Value: int(s.settings.HeartBtInt / time.Second)})
	if s.settings.ResetOnLogon {
		msg.Body.Set(fix.NewBoolField(tag.ResetSeqNumFlag, true))
	}
	if s.id.IsFIXT() && s.settings.SenderDefaultApplVerID != "" {
		msg.Body.Set(fix.NewStringField(tag.DefaultApplVerID, s.settings.SenderDefaultApplVerID))
	}
	s.sendRaw(msg, true)
	s.state.mu.Lock()
	s.state.sentLogon = true
	s.state.mu.Unlock()
}

// generateLogonResponse mirrors the counterparty's Logon back, matching
// EncryptMethod/HeartBtInt and honoring a ResetSeqNumFlag it asked for.
func (s *Session) generateLogonResponse() {
	msg := NewMessage(s.id.BeginString, "A")
	msg.Body.Set(fix.NewIntField(tag.EncryptMethod, 0))
	msg.Body.SetField(tag.HeartBtInt, &fix.IntValue{Value: int(s.settings.HeartBtInt / time.Second)})
	if s.state.receivedReset {
		msg.Body.Set(fix.NewBoolField(tag.ResetSeqNumFlag, true))
		s.state.mu.Lock()
		s.state.sentReset = true
		s.state.mu.Unlock()
	}
	if s.id.IsFIXT() && s.settings.SenderDefaultApplVerID != "" {
		msg.Body.Set(fix.NewStringField(tag.DefaultApplVerID, s.settings.SenderDefaultApplVerID))
	}
	s.sendRaw(msg, true)
	s.state.mu.Lock()
	s.state.sentLogon = true
	s.state.mu.Unlock()
}

func (s *Session) generateHeartbeat(testRequest *Message) {
	msg := NewMessage(s.id.BeginString, "0")
	if raw, ok := testRequest.Body.GetRaw(tag.TestReqID); ok {
		msg.Body.Set(fix.NewRawField(tag.TestReqID, raw))
	}
	s.sendRaw(msg, true)
}

// generateTestRequest is called by the session's heartbeat clock (driven
// externally, e.g. by a ticker goroutine calling CheckTimers) when the
// inbound link has gone quiet.
func (s *Session) generateTestRequest(id string) {
	msg := NewMessage(s.id.BeginString, "1")
	msg.Body.Set(fix.NewStringField(tag.TestReqID, id))
	s.sendRaw(msg, true)
}

func (s *Session) generateResendRequest(upTo int) {
	msg := NewMessage(s.id.BeginString, "2")
	msg.Body.Set(fix.NewIntField(tag.BeginSeqNo, s.state.getNextTargetMsgSeqNum()))
	msg.Body.Set(fix.NewIntField(tag.EndSeqNo, upTo-1))
	s.sendRaw(msg, true)
	s.state.setResendRange(s.state.getNextTargetMsgSeqNum(), upTo-1)
}

func (s *Session) generateSequenceReset(beginSeqNo, newSeqNo int) {
	msg := NewMessage(s.id.BeginString, "4")
	msg.Header.Set(fix.NewIntField(tag.MsgSeqNum, beginSeqNo))
	msg.Header.Set(fix.NewBoolField(tag.PossDupFlag, true))
	msg.Body.Set(fix.NewBoolField(tag.GapFillFlag, true))
	msg.Body.Set(fix.NewIntField(tag.NewSeqNo, newSeqNo))
	raw, err := msg.Build()
	if err != nil {
		return
	}
	s.tx(raw)
}

func (s *Session) generateReject(ref *Message, rej MessageRejectError) {
	businessCapable := fix.CompareBeginString(s.id.BeginString, fix.BeginString_FIX42) >= 0
	var msg *Message
	if rej.BusinessReject && businessCapable {
		msg = NewMessage(s.id.BeginString, "j")
		if refID, ok := ref.Header.GetRaw(tag.MsgSeqNum); ok {
			msg.Body.Set(fix.NewRawField(tag.BusinessRejectRefID, refID))
		}
		msg.Body.Set(fix.NewIntField(tag.BusinessRejectReason, int(rej.RejectReason)))
	} else {
		msg = NewMessage(s.id.BeginString, "3")
		if refSeq, ok := ref.Header.GetRaw(tag.MsgSeqNum); ok {
			msg.Body.Set(fix.NewRawField(tag.RefSeqNum, refSeq))
		}
		if businessCapable {
			msg.Body.Set(fix.NewIntField(tag.SessionRejectReason, int(rej.RejectReason)))
		}
		if refType, ok := ref.Header.GetRaw(tag.MsgType); ok {
			msg.Body.Set(fix.NewRawField(tag.RefMsgType, refType))
		}
	}
	if rej.RefTagID != 0 {
		msg.Body.Set(fix.NewIntField(tag.RefTagID, rej.RefTagID))
	}
	if rej.Text != "" {
		msg.Body.Set(fix.NewStringField(tag.Text, rej.Text))
	}
	s.sendRaw(msg, true)
	s.log.OnEvent(s.id, fmt.Sprintf("Message rejected: %s", rej.Error()))
}

func (s *Session) generateLogout(reason ...string) {
	msg := NewMessage(s.id.BeginString, "5")
	if len(reason) > 0 && reason[0] != "" {
		msg.Body.Set(fix.NewStringField(tag.Text, reason[0]))
	}
	s.sendRaw(msg, true)
	s.state.mu.Lock()
	s.state.sentLogout = true
	s.state.mu.Unlock()
}

func (s *Session) generateLogoutResponse() { s.generateLogout() }

// CheckTimers drives the heartbeat clock: called periodically (e.g. once
// a second) by the owning acceptor/initiator, it sends a Heartbeat when
// the outbound link has been idle, a TestRequest when the inbound link
// has been idle longer, and disconnects after the reference engine's
// 2.4x-heartbeat silence threshold.
func (s *Session) CheckTimers(now time.Time) {
	if !s.IsLoggedOn() {
		return
	}
	if s.state.timedOut(now) {
		s.log.OnEvent(s.id, "Timed out waiting for heartbeat")
		s.Disconnect()
		return
	}
	if s.state.needsTestRequest(now) {
		s.generateTestRequest(uuid.NewString())
		return
	}
	if s.state.needsHeartbeat(now) {
		msg := NewMessage(s.id.BeginString, "0")
		s.sendRaw(msg, true)
	}
}

// CheckCompID reports whether msg's SenderCompID/TargetCompID match this
// session's identity from the counterparty's perspective (reversed).
func (id SessionID) CheckCompID(msg *Message) bool {
	sender, _ := msg.Header.GetRaw(tag.SenderCompID)
	target, _ := msg.Header.GetRaw(tag.TargetCompID)
	return string(sender) == id.TargetCompID && string(target) == id.SenderCompID
}
