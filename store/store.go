// Package store 在内存里保存处理结果，过期后由 Sweeper 清理，不落盘。
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/chaos-io/clearcut/chroma"
)

var ErrNotFound = errors.New("store: result not found")

type Result struct {
	ID             string
	Original       []byte
	OriginalFormat chroma.Format
	PNG            []byte
	Stats          chroma.Stats
	CreatedAt      time.Time
}

type Store struct {
	mu    sync.RWMutex
	items map[string]*Result
	ttl   time.Duration
	now   func() time.Time
}

func New(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]*Result),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put 保存结果并分配 ID
func (s *Store) Put(r *Result) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = ksuid.New().String()
	r.CreatedAt = s.now()
	s.items[r.ID] = r
	return r.ID
}

func (s *Store) Get(id string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.items[id]
	if !ok || s.expired(r) {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Sweep 删除过期结果，返回删除的数量
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, r := range s.items {
		if s.expired(r) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) expired(r *Result) bool {
	return s.ttl > 0 && s.now().Sub(r.CreatedAt) > s.ttl
}
