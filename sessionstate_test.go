package quickfix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionStateSeqNumLifecycle(t *testing.T) {
	s := newSessionState(30 * time.Second)
	require.Equal(t, 1, s.getNextSenderMsgSeqNum())
	require.Equal(t, 1, s.getNextTargetMsgSeqNum())

	s.incrNextSenderMsgSeqNum()
	s.incrNextTargetMsgSeqNum()
	require.Equal(t, 2, s.getNextSenderMsgSeqNum())
	require.Equal(t, 2, s.getNextTargetMsgSeqNum())

	s.setNextSenderMsgSeqNum(100)
	require.Equal(t, 100, s.getNextSenderMsgSeqNum())
}

func TestSessionStateResetClearsEverything(t *testing.T) {
	s := newSessionState(30 * time.Second)
	s.incrNextSenderMsgSeqNum()
	s.sentLogon = true
	s.setResendRange(5, 10)
	s.queue(7, NewMessage("FIX.4.2", "1"))
	s.disable("test")

	s.reset()
	require.Equal(t, 1, s.getNextSenderMsgSeqNum())
	require.Equal(t, 1, s.getNextTargetMsgSeqNum())
	require.False(t, s.sentLogon)
	require.False(t, s.isResendRequested())
	_, ok := s.dequeue(7)
	require.False(t, ok)
}

func TestSessionStateEnableDisable(t *testing.T) {
	s := newSessionState(30 * time.Second)
	require.True(t, s.isEnabled())

	s.disable("manual logout")
	require.False(t, s.isEnabled())
	require.Equal(t, "manual logout", s.logoutReason)

	s.enable()
	require.True(t, s.isEnabled())
	require.Equal(t, "", s.logoutReason)
}

func TestSessionStateResendRangeTracking(t *testing.T) {
	s := newSessionState(30 * time.Second)
	require.False(t, s.isResendRequested())
	require.True(t, s.resendSatisfied(999))

	s.setResendRange(5, 10)
	require.True(t, s.isResendRequested())
	require.False(t, s.resendSatisfied(9))
	require.True(t, s.resendSatisfied(10))

	s.clearResendRange()
	require.False(t, s.isResendRequested())
}

func TestSessionStateOpenEndedResendNeverSatisfiedBySeqNum(t *testing.T) {
	s := newSessionState(30 * time.Second)
	s.setResendRange(5, 0)
	require.False(t, s.resendSatisfied(1_000_000))
}

func TestSessionStateQueueDequeue(t *testing.T) {
	s := newSessionState(30 * time.Second)
	msg := NewMessage("FIX.4.2", "1")
	s.queue(4, msg)

	got, ok := s.dequeue(4)
	require.True(t, ok)
	require.Same(t, msg, got)

	_, ok = s.dequeue(4)
	require.False(t, ok)
}

func TestSessionStateTimedOutThreshold(t *testing.T) {
	s := newSessionState(10 * time.Second)
	now := time.Now()
	s.markReceived(now)

	require.False(t, s.timedOut(now.Add(20*time.Second)))
	require.True(t, s.timedOut(now.Add(25*time.Second)))
}

func TestSessionStateTimedOutDisabledWhenNoHeartbeat(t *testing.T) {
	s := newSessionState(0)
	require.False(t, s.timedOut(time.Now().Add(time.Hour)))
}

func TestSessionStateNeedsHeartbeat(t *testing.T) {
	s := newSessionState(10 * time.Second)
	now := time.Now()
	s.markSent(now)

	require.False(t, s.needsHeartbeat(now.Add(5*time.Second)))
	require.True(t, s.needsHeartbeat(now.Add(10*time.Second)))
}

func TestSessionStateNeedsTestRequestEscalatesThenStops(t *testing.T) {
	// heartbeatInterval=10s; threshold scales with heartbeatInterval*(count+1)/4
	// on top of the base interval, so each escalation needs a wider gap.
	s := newSessionState(10 * time.Second)
	now := time.Now()
	s.markReceived(now)

	require.True(t, s.needsTestRequest(now.Add(13*time.Second)))
	require.Equal(t, 1, s.testRequestCount)

	require.True(t, s.needsTestRequest(now.Add(100*time.Second)))
	require.Equal(t, 2, s.testRequestCount)

	require.False(t, s.needsTestRequest(now.Add(1000*time.Second)))
	require.Equal(t, 2, s.testRequestCount)
}

func TestSessionStateMarkReceivedClearsTestRequestCount(t *testing.T) {
	s := newSessionState(10 * time.Second)
	now := time.Now()
	s.markReceived(now)
	s.needsTestRequest(now.Add(13 * time.Second))
	require.Equal(t, 1, s.testRequestCount)

	s.markReceived(now.Add(14 * time.Second))
	require.Equal(t, 0, s.testRequestCount)
}
