// Package fixnet wires a quickfix.Session to a net.Conn: a Responder that
// writes framed wire bytes to the socket, and a connection loop that feeds
// a Parser from Conn.Read and drives the session's heartbeat clock off a
// ticker, in the accept-loop-plus-goroutine-per-connection shape the rest
// of the pack uses for its own long-lived socket servers.
package fixnet

import (
	"fmt"
	"net"
	"sync"
	"time"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/fix/tag"
)

// ConnResponder adapts a net.Conn to quickfix.Responder. Send is safe for
// concurrent use; a Session only ever calls it from within its own mutex,
// but CheckTimers can run concurrently from the heartbeat ticker goroutine.
type ConnResponder struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewConnResponder wraps conn.
func NewConnResponder(conn net.Conn) *ConnResponder {
	return &ConnResponder{conn: conn}
}

// Send writes data to the connection, returning false on any write error.
func (r *ConnResponder) Send(data []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return false
	}
	_, err := r.conn.Write(data)
	return err == nil
}

// Disconnect closes the underlying connection.
func (r *ConnResponder) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

// RunConnection attaches responder to sess, then reads raw bytes from conn
// until it closes or errors, framing them through a Parser and delivering
// each complete message to sess.Incoming. A ticker drives sess.CheckTimers
// for the lifetime of the connection. It returns once the connection ends;
// the caller's Accept/Dial loop should call it in its own goroutine.
func RunConnection(sess *quickfix.Session, conn net.Conn, maxMessageSize int, responder *ConnResponder) {
	sess.Connect(responder)
	defer sess.Disconnect()
	runLoop(sess, conn, quickfix.NewParser(maxMessageSize), nil)
}

// runLoop drives sess's read loop and heartbeat ticker until conn closes or
// errors. pending, if non-nil, is a frame already extracted from conn by an
// earlier peek (used by AcceptAndRoute to replay the Logon it inspected to
// pick sess) and is dispatched before any further Read.
func runLoop(sess *quickfix.Session, conn net.Conn, parser *quickfix.Parser, pending []byte) {
	stopTimers := make(chan struct{})
	defer close(stopTimers)
	go runTimers(sess, stopTimers)

	if pending != nil {
		sess.Incoming(time.Now(), pending)
	}

	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			parser.Append(buf[:n])
			for {
				raw, ferr := parser.Next()
				if ferr != nil {
					return
				}
				if raw == nil {
					break
				}
				sess.Incoming(time.Now(), raw)
			}
		}
		if err != nil {
			return
		}
	}
}

// AcceptAndRoute reads the first frame off a freshly accepted connection,
// extracts its header's SenderCompID/TargetCompID/BeginString, and looks up
// the matching Session in reg from the counterparty's perspective (reversed:
// the peer's Sender is our Target and vice versa). This lets one acceptor
// port multiplex several SessionIDs, the way the reference engine's
// SocketAcceptor dispatches an incoming Logon to the session it names. It
// attaches a ConnResponder to the matched Session and runs its connection
// loop; it returns an error (and closes conn) if no frame arrives or no
// Session matches.
func AcceptAndRoute(reg *quickfix.Registry, conn net.Conn, maxMessageSize int) error {
	parser := quickfix.NewParser(maxMessageSize)
	buf := make([]byte, 64*1024)

	var first []byte
	for first == nil {
		n, err := conn.Read(buf)
		if n > 0 {
			parser.Append(buf[:n])
			raw, ferr := parser.Next()
			if ferr != nil {
				conn.Close()
				return ferr
			}
			first = raw
		}
		if first == nil && err != nil {
			conn.Close()
			return fmt.Errorf("fixnet: connection closed before first message: %w", err)
		}
	}

	msg, err := quickfix.ParseMessage(first, nil, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("fixnet: parse first message: %w", err)
	}

	id := quickfix.SessionID{}
	if raw, ok := msg.Header.GetRaw(tag.BeginString); ok {
		id.BeginString = string(raw)
	}
	peerSender, _ := msg.Header.GetRaw(tag.SenderCompID)
	peerTarget, _ := msg.Header.GetRaw(tag.TargetCompID)
	id.SenderCompID = string(peerTarget)
	id.TargetCompID = string(peerSender)

	sess, ok := reg.Lookup(id)
	if !ok {
		conn.Close()
		return fmt.Errorf("fixnet: no session configured for %s", id)
	}

	responder := NewConnResponder(conn)
	sess.Connect(responder)
	defer sess.Disconnect()
	runLoop(sess, conn, parser, first)
	return nil
}

func runTimers(sess *quickfix.Session, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			sess.CheckTimers(now)
		}
	}
}
