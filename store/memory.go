package store

import "time"

// MemoryStore is an in-process MessageStore that loses all data on
// process termination. Intended for tests and demo sessions, never for
// production use, matching the reference engine's own MemoryStore.
type MemoryStore struct {
	messages map[int][]byte
	nextSend int
	nextRecv int
	created  time.Time
}

// NewMemoryStore constructs an empty MemoryStore with sequence numbers
// reset to 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[int][]byte), nextSend: 1, nextRecv: 1, created: time.Now()}
}

// MemoryStoreFactory builds a fresh MemoryStore per session.
type MemoryStoreFactory struct{}

// Create implements Factory.
func (MemoryStoreFactory) Create(ID) (MessageStore, error) { return NewMemoryStore(), nil }

func (s *MemoryStore) Set(msgSeqNum int, msg []byte) error {
	cp := make([]byte, len(msg))
	copy(cp, msg)
	s.messages[msgSeqNum] = cp
	return nil
}

func (s *MemoryStore) Get(begin, end int) ([][]byte, error) {
	var out [][]byte
	for i := begin; i <= end; i++ {
		if m, ok := s.messages[i]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) NextSenderMsgSeqNum() int { return s.nextSend }
func (s *MemoryStore) NextTargetMsgSeqNum() int { return s.nextRecv }

func (s *MemoryStore) SetNextSenderMsgSeqNum(n int) error { s.nextSend = n; return nil }
func (s *MemoryStore) SetNextTargetMsgSeqNum(n int) error { s.nextRecv = n; return nil }

func (s *MemoryStore) IncrNextSenderMsgSeqNum() error { s.nextSend++; return nil }
func (s *MemoryStore) IncrNextTargetMsgSeqNum() error { s.nextRecv++; return nil }

func (s *MemoryStore) CreationTime() time.Time { return s.created }

func (s *MemoryStore) Reset() error {
	s.messages = make(map[int][]byte)
	s.nextSend = 1
	s.nextRecv = 1
	s.created = time.Now()
	return nil
}

func (s *MemoryStore) Refresh() error { return nil }
