package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"luna-voice-backend/internal/types"
)

// FileAlarmStore persists alarms in a single JSON file. Good enough
// for one device box surviving restarts without a database.
type FileAlarmStore struct {
	mu     sync.Mutex
	path   string
	alarms map[int64]types.Alarm
	nextID int64
}

type fileAlarmDoc struct {
	NextID int64         `json:"nextId"`
	Alarms []types.Alarm `json:"alarms"`
}

func NewFileAlarmStore(path string) (*FileAlarmStore, error) {
	s := &FileAlarmStore{path: path, alarms: make(map[int64]types.Alarm), nextID: 1}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileAlarmStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var doc fileAlarmDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parse alarms file: %w", err)
	}
	for _, a := range doc.Alarms {
		s.alarms[a.ID] = a
	}
	if doc.NextID > 0 {
		s.nextID = doc.NextID
	}
	return nil
}

// saveLocked writes the whole document atomically (tmp file + rename).
func (s *FileAlarmStore) saveLocked() error {
	doc := fileAlarmDoc{NextID: s.nextID}
	for _, a := range s.alarms {
		doc.Alarms = append(doc.Alarms, a)
	}
	sort.Slice(doc.Alarms, func(i, j int) bool { return doc.Alarms[i].ID < doc.Alarms[j].ID })
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileAlarmStore) Create(_ context.Context, a types.Alarm) (types.Alarm, error) {
	if a.DeviceID == "" || a.FireAt <= 0 {
		return types.Alarm{}, fmt.Errorf("deviceId and fireAt are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID
	s.nextID++
	a.Fired = false
	s.alarms[a.ID] = a
	if err := s.saveLocked(); err != nil {
		delete(s.alarms, a.ID)
		return types.Alarm{}, err
	}
	return a, nil
}

func (s *FileAlarmStore) List(_ context.Context, deviceID string) ([]types.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collectAlarms(s.alarms, func(a types.Alarm) bool {
		return deviceID == "" || a.DeviceID == deviceID
	}), nil
}

func (s *FileAlarmStore) Due(_ context.Context, deviceID string, now int64) ([]types.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collectAlarms(s.alarms, func(a types.Alarm) bool {
		return !a.Fired && a.FireAt <= now && (deviceID == "" || a.DeviceID == deviceID)
	}), nil
}

func (s *FileAlarmStore) MarkFired(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alarms[id]
	if !ok {
		return fmt.Errorf("alarm %d not found", id)
	}
	a.Fired = true
	s.alarms[id] = a
	return s.saveLocked()
}

func (s *FileAlarmStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alarms[id]; !ok {
		return fmt.Errorf("alarm %d not found", id)
	}
	delete(s.alarms, id)
	return s.saveLocked()
}
