package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileStore persists a session's outbound message journal and sequence
// numbers across restarts using four files per session, named after the
// reference engine's on-disk layout: "<id>.body" (the concatenated raw
// messages), "<id>.header" (one "seq,offset,length" line per message),
// "<id>.seqnums" ("sender : target"), and "<id>.session" (creation
// timestamp). The in-memory offset index is rebuilt from the header file
// on open, so only the body file is read at Get time.
type FileStore struct {
	bodyPath, headerPath, seqNumsPath, sessionPath string

	body    *os.File
	header  *os.File
	seqNums *os.File
	session *os.File

	offsets map[int]offsetSize

	nextSend, nextRecv int
	created            time.Time
}

type offsetSize struct {
	offset int64
	length int
}

// FileStoreFactory builds a FileStore rooted at Dir for each session.
type FileStoreFactory struct{ Dir string }

// Create implements Factory.
func (f FileStoreFactory) Create(id ID) (MessageStore, error) { return NewFileStore(f.Dir, id) }

func sessionPrefix(id ID) string {
	s := fmt.Sprintf("%s-%s-%s", id.BeginString, id.SenderCompID, id.TargetCompID)
	if id.Qualifier != "" {
		s += "-" + id.Qualifier
	}
	return s
}

// NewFileStore opens (creating if absent) the four files backing id's
// session under dir.
func NewFileStore(dir string, id ID) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
	}
	prefix := filepath.Join(dir, sessionPrefix(id)+".")
	fs := &FileStore{
		bodyPath:    prefix + "body",
		headerPath:  prefix + "header",
		seqNumsPath: prefix + "seqnums",
		sessionPath: prefix + "session",
		offsets:     make(map[int]offsetSize),
		nextSend:    1,
		nextRecv:    1,
	}
	if err := fs.open(false); err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *FileStore) closeHandles() {
	for _, f := range []*os.File{s.body, s.header, s.seqNums, s.session} {
		if f != nil {
			f.Close()
		}
	}
	s.body, s.header, s.seqNums, s.session = nil, nil, nil, nil
}

func (s *FileStore) open(deleteFiles bool) error {
	s.closeHandles()

	if deleteFiles {
		os.Remove(s.bodyPath)
		os.Remove(s.headerPath)
		os.Remove(s.seqNumsPath)
		os.Remove(s.sessionPath)
	}

	if err := s.populateCache(); err != nil {
		return err
	}

	var err error
	if s.body, err = os.OpenFile(s.bodyPath, os.O_RDWR|os.O_CREATE, 0o644); err != nil {
		return fmt.Errorf("store: open body file: %w", err)
	}
	if _, err := s.body.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("store: seek body file: %w", err)
	}
	if s.header, err = os.OpenFile(s.headerPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644); err != nil {
		return fmt.Errorf("store: open header file: %w", err)
	}
	if s.seqNums, err = os.OpenFile(s.seqNumsPath, os.O_RDWR|os.O_CREATE, 0o644); err != nil {
		return fmt.Errorf("store: open seqnums file: %w", err)
	}

	_, statErr := os.Stat(s.sessionPath)
	needsCreationTime := os.IsNotExist(statErr)
	if s.session, err = os.OpenFile(s.sessionPath, os.O_RDWR|os.O_CREATE, 0o644); err != nil {
		return fmt.Errorf("store: open session file: %w", err)
	}
	if needsCreationTime {
		s.created = time.Now()
		if err := s.writeSession(); err != nil {
			return err
		}
	}

	return s.writeSeqNums()
}

func (s *FileStore) populateCache() error {
	s.offsets = make(map[int]offsetSize)
	if f, err := os.Open(s.headerPath); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var num, size int
			var offset int64
			if _, err := fmt.Sscanf(scanner.Text(), "%d,%d,%d", &num, &offset, &size); err == nil {
				s.offsets[num] = offsetSize{offset, size}
			}
		}
		f.Close()
	}

	s.nextSend, s.nextRecv = 1, 1
	if f, err := os.Open(s.seqNumsPath); err == nil {
		var sender, target int
		var scanned string
		b := bufio.NewReader(f)
		line, _ := b.ReadString('\n')
		scanned = line
		if _, err := fmt.Sscanf(scanned, "%d : %d", &sender, &target); err == nil {
			s.nextSend, s.nextRecv = sender, target
		}
		f.Close()
	}

	s.created = time.Now()
	if f, err := os.Open(s.sessionPath); err == nil {
		b := bufio.NewReader(f)
		line, _ := b.ReadString('\n')
		if t, err := time.Parse(time.RFC3339Nano, line); err == nil {
			s.created = t
		}
		f.Close()
	}

	return nil
}

func (s *FileStore) writeSeqNums() error {
	if err := s.seqNums.Truncate(0); err != nil {
		return fmt.Errorf("store: truncate seqnums file: %w", err)
	}
	if _, err := s.seqNums.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.seqNums, "%010d : %010d", s.nextSend, s.nextRecv); err != nil {
		return fmt.Errorf("store: write seqnums file: %w", err)
	}
	return s.seqNums.Sync()
}

func (s *FileStore) writeSession() error {
	if err := s.session.Truncate(0); err != nil {
		return fmt.Errorf("store: truncate session file: %w", err)
	}
	if _, err := s.session.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := s.session.WriteString(s.created.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("store: write session file: %w", err)
	}
	return s.session.Sync()
}

func (s *FileStore) Set(msgSeqNum int, msg []byte) error {
	offset, err := s.body.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("store: seek body file: %w", err)
	}
	if _, err := s.header.WriteString(fmt.Sprintf("%d,%d,%d\n", msgSeqNum, offset, len(msg))); err != nil {
		return fmt.Errorf("store: write header file: %w", err)
	}
	s.offsets[msgSeqNum] = offsetSize{offset, len(msg)}
	if _, err := s.body.Write(msg); err != nil {
		return fmt.Errorf("store: write body file: %w", err)
	}
	return s.header.Sync()
}

func (s *FileStore) Get(begin, end int) ([][]byte, error) {
	var out [][]byte
	for i := begin; i <= end; i++ {
		entry, ok := s.offsets[i]
		if !ok {
			continue
		}
		buf := make([]byte, entry.length)
		if _, err := s.body.ReadAt(buf, entry.offset); err != nil {
			return nil, fmt.Errorf("store: read body file: %w", err)
		}
		out = append(out, buf)
	}
	return out, nil
}

func (s *FileStore) NextSenderMsgSeqNum() int { return s.nextSend }
func (s *FileStore) NextTargetMsgSeqNum() int { return s.nextRecv }

func (s *FileStore) SetNextSenderMsgSeqNum(n int) error {
	s.nextSend = n
	return s.writeSeqNums()
}

func (s *FileStore) SetNextTargetMsgSeqNum(n int) error {
	s.nextRecv = n
	return s.writeSeqNums()
}

func (s *FileStore) IncrNextSenderMsgSeqNum() error {
	s.nextSend++
	return s.writeSeqNums()
}

func (s *FileStore) IncrNextTargetMsgSeqNum() error {
	s.nextRecv++
	return s.writeSeqNums()
}

func (s *FileStore) CreationTime() time.Time { return s.created }

func (s *FileStore) Reset() error {
	if err := s.open(true); err != nil {
		return err
	}
	return nil
}

func (s *FileStore) Refresh() error { return s.open(false) }

// Close releases the underlying file handles.
func (s *FileStore) Close() error {
	s.closeHandles()
	return nil
}
