package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"luna-voice-backend/internal/types"
)

// AlarmStore is plain CRUD over alarm records; firing is pull-based,
// the client polls Due and acknowledges with MarkFired.
type AlarmStore interface {
	Create(ctx context.Context, a types.Alarm) (types.Alarm, error)
	List(ctx context.Context, deviceID string) ([]types.Alarm, error)
	Due(ctx context.Context, deviceID string, now int64) ([]types.Alarm, error)
	MarkFired(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// MemoryAlarmStore keeps alarms in process memory.
type MemoryAlarmStore struct {
	mu     sync.Mutex
	alarms map[int64]types.Alarm
	nextID int64
}

func NewMemoryAlarmStore() *MemoryAlarmStore {
	return &MemoryAlarmStore{alarms: make(map[int64]types.Alarm), nextID: 1}
}

func (s *MemoryAlarmStore) Create(_ context.Context, a types.Alarm) (types.Alarm, error) {
	if a.DeviceID == "" || a.FireAt <= 0 {
		return types.Alarm{}, fmt.Errorf("deviceId and fireAt are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID
	s.nextID++
	a.Fired = false
	s.alarms[a.ID] = a
	return a, nil
}

func (s *MemoryAlarmStore) List(_ context.Context, deviceID string) ([]types.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collectAlarms(s.alarms, func(a types.Alarm) bool {
		return deviceID == "" || a.DeviceID == deviceID
	}), nil
}

func (s *MemoryAlarmStore) Due(_ context.Context, deviceID string, now int64) ([]types.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collectAlarms(s.alarms, func(a types.Alarm) bool {
		return !a.Fired && a.FireAt <= now && (deviceID == "" || a.DeviceID == deviceID)
	}), nil
}

func (s *MemoryAlarmStore) MarkFired(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alarms[id]
	if !ok {
		return fmt.Errorf("alarm %d not found", id)
	}
	a.Fired = true
	s.alarms[id] = a
	return nil
}

func (s *MemoryAlarmStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alarms[id]; !ok {
		return fmt.Errorf("alarm %d not found", id)
	}
	delete(s.alarms, id)
	return nil
}

func collectAlarms(all map[int64]types.Alarm, keep func(types.Alarm) bool) []types.Alarm {
	out := make([]types.Alarm, 0)
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt < out[j].FireAt })
	return out
}
