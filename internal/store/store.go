package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxSessions bounds the history file.
const maxSessions = 200

// Store keeps the connection history used to suggest recent ports. It
// never stores data read from the device.
type Store struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a Store rooted at the given directory (typically .serialplot/).
func New(root string) *Store {
	return &Store{root: root, now: time.Now}
}

func (s *Store) historyDir() string {
	return filepath.Join(s.root, "history")
}

// RecordSession appends a session for port at baudRate.
func (s *Store) RecordSession(port string, baudRate int) error {
	return s.appendRecord("sessions.json", SessionRecord{
		ID:        uuid.NewString(),
		Port:      port,
		BaudRate:  baudRate,
		Timestamp: s.now(),
	})
}

// Sessions returns all session records, oldest first.
func (s *Store) Sessions() ([]SessionRecord, error) {
	var records []SessionRecord
	err := s.loadRecords("sessions.json", &records)
	return records, err
}

// RecentPorts returns distinct port names, most recently used first.
func (s *Store) RecentPorts(limit int) ([]string, error) {
	records, err := s.Sessions()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ports []string
	for i := len(records) - 1; i >= 0; i-- {
		p := records[i].Port
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		ports = append(ports, p)
		if limit > 0 && len(ports) == limit {
			break
		}
	}
	return ports, nil
}

func (s *Store) appendRecord(filename string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.historyDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, filename)

	var records []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		json.Unmarshal(data, &records)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	records = append(records, raw)
	if len(records) > maxSessions {
		records = records[len(records)-maxSessions:]
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) loadRecords(filename string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.historyDir(), filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dest)
}
