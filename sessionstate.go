package quickfix

import (
	"sync"
	"time"
)

// resendRange is the [begin,end] sequence span a ResendRequest was sent
// for, tracked so later GapFill/SequenceReset handling knows when the
// outstanding request has been fully satisfied. end of 0 means "until
// whatever the counterparty ultimately sends" (an open-ended request).
type resendRange struct {
	begin, end int
}

// sessionState is the mutable runtime state machine behind a Session:
// negotiated sequence numbers, logon/logout progress flags, resend
// bookkeeping, and the heartbeat clock. All access is serialized by mu,
// since inbound message handling and the heartbeat/test-request ticker
// both touch it.
type sessionState struct {
	mu sync.Mutex

	nextSenderSeq int
	nextTargetSeq int
	creationTime  time.Time

	sentLogon     bool
	sentLogout    bool
	receivedLogon bool
	receivedReset bool
	sentReset     bool

	heartbeatInterval time.Duration
	lastSent          time.Time
	lastReceived      time.Time
	testRequestCount  int

	resendRequested *resendRange
	// queued holds out-of-sequence messages received while a
	// ResendRequest is outstanding for the gap before them, keyed by
	// MsgSeqNum, so they can be replayed in order once the gap closes.
	queued map[int]*Message

	logoutReason string
	enabled      bool

	// targetDefaultApplVerID is the counterparty's DefaultApplVerID as
	// received in its Logon, for FIXT sessions. Empty until negotiated.
	targetDefaultApplVerID string
}

func newSessionState(heartbeatInterval time.Duration) *sessionState {
	now := time.Now()
	return &sessionState{
		nextSenderSeq:     1,
		nextTargetSeq:     1,
		creationTime:      now,
		heartbeatInterval: heartbeatInterval,
		lastSent:          now,
		lastReceived:      now,
		queued:            make(map[int]*Message),
		enabled:           true,
	}
}

func (s *sessionState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSenderSeq = 1
	s.nextTargetSeq = 1
	s.creationTime = time.Now()
	s.sentLogon = false
	s.sentLogout = false
	s.receivedLogon = false
	s.receivedReset = false
	s.sentReset = false
	s.testRequestCount = 0
	s.resendRequested = nil
	s.queued = make(map[int]*Message)
	s.logoutReason = ""
}

func (s *sessionState) enable()           { s.mu.Lock(); s.enabled = true; s.logoutReason = ""; s.mu.Unlock() }
func (s *sessionState) disable(reason string) {
	s.mu.Lock()
	s.enabled = false
	s.logoutReason = reason
	s.mu.Unlock()
}
func (s *sessionState) isEnabled() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.enabled }

func (s *sessionState) getNextSenderMsgSeqNum() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSenderSeq
}

func (s *sessionState) getNextTargetMsgSeqNum() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextTargetSeq
}

func (s *sessionState) setNextSenderMsgSeqNum(n int) { s.mu.Lock(); s.nextSenderSeq = n; s.mu.Unlock() }
func (s *sessionState) setNextTargetMsgSeqNum(n int) { s.mu.Lock(); s.nextTargetSeq = n; s.mu.Unlock() }

func (s *sessionState) incrNextSenderMsgSeqNum() { s.mu.Lock(); s.nextSenderSeq++; s.mu.Unlock() }
func (s *sessionState) incrNextTargetMsgSeqNum() { s.mu.Lock(); s.nextTargetSeq++; s.mu.Unlock() }

func (s *sessionState) setTargetDefaultApplVerID(v string) {
	s.mu.Lock()
	s.targetDefaultApplVerID = v
	s.mu.Unlock()
}

func (s *sessionState) getTargetDefaultApplVerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetDefaultApplVerID
}

// setResendRange records an outstanding ResendRequest's span. end == 0
// means open-ended.
func (s *sessionState) setResendRange(begin, end int) {
	s.mu.Lock()
	s.resendRequested = &resendRange{begin, end}
	s.mu.Unlock()
}

func (s *sessionState) clearResendRange() {
	s.mu.Lock()
	s.resendRequested = nil
	s.mu.Unlock()
}

func (s *sessionState) isResendRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resendRequested != nil
}

// resendSatisfied reports whether seqNum closes the outstanding resend
// range: true when no range is outstanding or seqNum reaches its end. An
// open-ended range (end 0) is never satisfied by a seqNum.
func (s *sessionState) resendSatisfied(seqNum int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resendRequested == nil {
		return true
	}
	return s.resendRequested.end != 0 && seqNum >= s.resendRequested.end
}

func (s *sessionState) queue(seqNum int, msg *Message) {
	s.mu.Lock()
	s.queued[seqNum] = msg
	s.mu.Unlock()
}

func (s *sessionState) dequeue(seqNum int) (*Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.queued[seqNum]
	if ok {
		delete(s.queued, seqNum)
	}
	return m, ok
}

func (s *sessionState) clearQueue() {
	s.mu.Lock()
	s.queued = make(map[int]*Message)
	s.mu.Unlock()
}

// markSent records outbound traffic for the heartbeat clock.
func (s *sessionState) markSent(t time.Time) { s.mu.Lock(); s.lastSent = t; s.mu.Unlock() }

// markReceived records inbound traffic for the heartbeat clock and
// clears the test-request escalation counter.
func (s *sessionState) markReceived(t time.Time) {
	s.mu.Lock()
	s.lastReceived = t
	s.testRequestCount = 0
	s.mu.Unlock()
}

// timedOut reports whether no message has been received within
// 2.4x the heartbeat interval, the reference engine's disconnect
// threshold after escalating TestRequests went unanswered.
func (s *sessionState) timedOut(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heartbeatInterval <= 0 {
		return false
	}
	return now.Sub(s.lastReceived) > (s.heartbeatInterval*12)/5
}

// needsHeartbeat reports whether the outbound link has been idle for a
// full heartbeat interval.
func (s *sessionState) needsHeartbeat(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heartbeatInterval <= 0 {
		return false
	}
	return now.Sub(s.lastSent) >= s.heartbeatInterval
}

// needsTestRequest reports whether the inbound link has been idle long
// enough to challenge the counterparty with a TestRequest, and bumps the
// escalation counter.
func (s *sessionState) needsTestRequest(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heartbeatInterval <= 0 {
		return false
	}
	threshold := s.heartbeatInterval + (s.heartbeatInterval*testRequestCount(s.testRequestCount+1))/4
	if now.Sub(s.lastReceived) < threshold {
		return false
	}
	if s.testRequestCount >= 2 {
		return false
	}
	s.testRequestCount++
	return true
}

func testRequestCount(n int) time.Duration { return time.Duration(n) }
