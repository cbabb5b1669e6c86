package quickfix

// Application is implemented by the user of the engine to receive
// session lifecycle notifications and intercept every message crossing
// a session, admin or business. Methods are called on the session's
// single processing goroutine; an Application must not block for long
// or it will stall heartbeats and message delivery for that session.
type Application interface {
	// OnCreate is called once when a session is registered, before any
	// network activity, to let the application prepare per-session state.
	OnCreate(sessionID SessionID)

	// OnLogon is called when the session transitions to the logged-on
	// state, whether as acceptor or initiator.
	OnLogon(sessionID SessionID)

	// OnLogout is called when the session is no longer logged on, either
	// from an explicit Logout exchange or a disconnect.
	OnLogout(sessionID SessionID)

	// ToAdmin is called before an admin message is sent, letting the
	// application add fields (e.g. authentication) before transmission.
	// Returning a DoNotSendError vetoes the send.
	ToAdmin(msg *Message, sessionID SessionID) error

	// ToApp is called before an application message is sent. Returning
	// an error aborts the send (used to implement a PossDupFlag/resend
	// throttle or similar outbound business veto).
	ToApp(msg *Message, sessionID SessionID) error

	// FromAdmin is called upon receipt of an admin message, before the
	// engine acts on it. Returning a MessageRejectError causes the
	// engine to send the corresponding reject instead of processing it.
	FromAdmin(msg *Message, sessionID SessionID) error

	// FromApp is called upon receipt of an application message. Returning
	// a MessageRejectError causes the engine to send the corresponding
	// reject instead of delivering it further.
	FromApp(msg *Message, sessionID SessionID) error
}
