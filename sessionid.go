package quickfix

import "fmt"

// SessionID uniquely identifies a FIX session: protocol version plus the
// CompID pair, with an optional qualifier to distinguish multiple
// sessions sharing the same BeginString/SenderCompID/TargetCompID (e.g.
// parallel connections to the same counterparty for different asset
// classes).
type SessionID struct {
	BeginString  string
	SenderCompID string
	TargetCompID string
	Qualifier    string
}

// String renders the SessionID in "BEGIN:SENDER->TARGET[:QUALIFIER]" form.
func (id SessionID) String() string {
	s := fmt.Sprintf("%s:%s->%s", id.BeginString, id.SenderCompID, id.TargetCompID)
	if id.Qualifier != "" {
		s += ":" + id.Qualifier
	}
	return s
}

// IsFIXT reports whether this session negotiates transport separately
// from application version (BeginString is FIXT.1.1).
func (id SessionID) IsFIXT() bool { return id.BeginString == "FIXT.1.1" }
