package store

import "sync"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role    string
	Content string
}

// ConversationStore keeps per-device ordered turn history. The first
// turn is always the system turn; SetSystem refreshes it in place.
type ConversationStore interface {
	SetSystem(deviceID, content string)
	Append(deviceID string, t Turn)
	Get(deviceID string) []Turn
	Reset(deviceID string)
}

// MemoryStore holds conversations in process memory. Each device has
// its own lock so concurrent requests for one device serialize without
// blocking unrelated devices.
type MemoryStore struct {
	mu       sync.Mutex
	devices  map[string]*conversation
	maxTurns int // non-system turns kept; the system turn is exempt
}

type conversation struct {
	mu    sync.Mutex
	turns []Turn
}

func NewMemoryStore(maxTurns int) *MemoryStore {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &MemoryStore{
		devices:  make(map[string]*conversation),
		maxTurns: maxTurns,
	}
}

func (m *MemoryStore) device(deviceID string) *conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.devices[deviceID]
	if !ok {
		c = &conversation{}
		m.devices[deviceID] = c
	}
	return c
}

// SetSystem creates the history with a system turn on first use, and
// refreshes the existing system turn's content afterwards. It never
// appends a second system turn.
func (m *MemoryStore) SetSystem(deviceID, content string) {
	c := m.device(deviceID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.turns) == 0 {
		c.turns = append(c.turns, Turn{Role: RoleSystem, Content: content})
		return
	}
	c.turns[0].Content = content
}

func (m *MemoryStore) Append(deviceID string, t Turn) {
	c := m.device(deviceID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, t)
	m.trimLocked(c)
}

// trimLocked drops the oldest non-system turns once over the cap.
func (m *MemoryStore) trimLocked(c *conversation) {
	if len(c.turns) <= m.maxTurns+1 {
		return
	}
	if c.turns[0].Role != RoleSystem {
		c.turns = c.turns[len(c.turns)-m.maxTurns:]
		return
	}
	keep := c.turns[len(c.turns)-m.maxTurns:]
	trimmed := make([]Turn, 0, m.maxTurns+1)
	trimmed = append(trimmed, c.turns[0])
	trimmed = append(trimmed, keep...)
	c.turns = trimmed
}

func (m *MemoryStore) Get(deviceID string) []Turn {
	c := m.device(deviceID)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (m *MemoryStore) Reset(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, deviceID)
}
