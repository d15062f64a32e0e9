package session

import (
	"errors"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

var ErrNotFound = errors.New("session: not found")

type Session struct {
	ID       string
	State    State
	ResultID string
	// FailureKind 失败类别，只保存分类后的标签，不保存上游返回的原始错误
	FailureKind string
	// CameraOpen 摄像头是否被当前会话占用
	CameraOpen bool
	UpdatedAt  time.Time
}

// Snapshot 对外展示用
type Snapshot struct {
	ID          string    `json:"id"`
	State       State     `json:"state"`
	ResultID    string    `json:"resultId,omitempty"`
	FailureKind string    `json:"failureKind,omitempty"`
	CameraOpen  bool      `json:"cameraOpen"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:          s.ID,
		State:       s.State,
		ResultID:    s.ResultID,
		FailureKind: s.FailureKind,
		CameraOpen:  s.CameraOpen,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Manager 并发安全，所有状态变化都经过 Next
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *Manager) Create() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{ID: ksuid.New().String(), State: Idle, UpdatedAt: m.now()}
	m.sessions[s.ID] = s
	return s.Snapshot()
}

func (m *Manager) Get(id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return s.Snapshot(), nil
}

func (m *Manager) StartCamera(id string) (Snapshot, error) {
	return m.fire(id, StartCamera, func(s *Session) {
		s.CameraOpen = true
		s.ResultID = ""
		s.FailureKind = ""
	})
}

func (m *Manager) StopCamera(id string) (Snapshot, error) {
	return m.fire(id, StopCamera, nil)
}

// Submit 进入处理状态，如果摄像头开着就先释放
func (m *Manager) Submit(id string) (Snapshot, error) {
	return m.fire(id, Submit, func(s *Session) {
		s.ResultID = ""
		s.FailureKind = ""
	})
}

func (m *Manager) Succeed(id, resultID string) (Snapshot, error) {
	return m.fire(id, Succeed, func(s *Session) {
		s.ResultID = resultID
	})
}

// Fail 进入失败状态，kind 是给前端看的错误类别
func (m *Manager) Fail(id, kind string) (Snapshot, error) {
	return m.fire(id, Fail, func(s *Session) {
		s.FailureKind = kind
	})
}

func (m *Manager) Reset(id string) (Snapshot, error) {
	return m.fire(id, Reset, func(s *Session) {
		s.ResultID = ""
		s.FailureKind = ""
	})
}

func (m *Manager) fire(id string, ev Event, apply func(s *Session)) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	to, err := Next(s.State, ev)
	if err != nil {
		return s.Snapshot(), err
	}

	// 离开 CameraActive 的任何路径都要释放摄像头
	if s.State == CameraActive && to != CameraActive {
		s.CameraOpen = false
	}
	s.State = to
	if apply != nil {
		apply(s)
	}
	s.UpdatedAt = m.now()
	return s.Snapshot(), nil
}

// Sweep 删除过期且不在处理中的会话
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ttl <= 0 {
		return 0
	}
	deadline := m.now().Add(-m.ttl)
	n := 0
	for id, s := range m.sessions {
		if s.State != Processing && s.UpdatedAt.Before(deadline) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
