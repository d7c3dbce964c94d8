// Package storage provides the keyed persistence layer behind the tool
// handlers: a Store that opens per-request transactions over task and user
// records. Mutations stage in the transaction and become visible to other
// requests only at Commit, so a failed handler never leaves a
// partially-applied write behind.
package storage

import (
	"sort"
	"sync"

	"github.com/taskmesh/taskmesh/domain"
)

// Store opens transactions over the underlying keyed records.
type Store interface {
	Begin() Tx
}

// Tx is a single-request unit of work. Reads observe committed state plus
// the transaction's own staged writes. Commit applies staged mutations
// atomically; Rollback discards them. Both are safe to call after the other
// has run, so handlers can unconditionally defer Rollback.
type Tx interface {
	GetTask(id string) (*domain.Task, error)
	ListTasks(filter domain.TaskFilter) ([]*domain.Task, error)
	PutTask(task *domain.Task) error
	DeleteTask(id string) error
	GetUser(id string) (*domain.User, error)
	Commit() error
	Rollback() error
}

// Memory is a volatile Store keeping records in process-local maps. It is
// safe for concurrent use; concurrent transactions touching the same record
// resolve last-writer-wins with no conflict detection.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	users map[string]*domain.User
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tasks: make(map[string]*domain.Task),
		users: make(map[string]*domain.User),
	}
}

// PutUser stores (or replaces) a user record. Used for seeding; user
// lifecycle management sits outside this layer.
func (m *Memory) PutUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user.Clone()
}

// GetTask returns a committed task by id, bypassing any transaction. Intended
// for inspection in tests and tooling.
func (m *Memory) GetTask(id string) (*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}
	return task.Clone(), nil
}

// Begin opens a transaction whose writes stage locally until Commit.
func (m *Memory) Begin() Tx {
	return &memTx{
		store:   m,
		staged:  make(map[string]*domain.Task),
		deleted: make(map[string]bool),
	}
}

type memTx struct {
	store   *Memory
	staged  map[string]*domain.Task
	deleted map[string]bool
	done    bool
}

func (tx *memTx) GetTask(id string) (*domain.Task, error) {
	if tx.deleted[id] {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}
	if task, ok := tx.staged[id]; ok {
		return task.Clone(), nil
	}
	return tx.store.GetTask(id)
}

func (tx *memTx) ListTasks(filter domain.TaskFilter) ([]*domain.Task, error) {
	tx.store.mu.RLock()
	merged := make(map[string]*domain.Task, len(tx.store.tasks))
	for id, task := range tx.store.tasks {
		merged[id] = task
	}
	tx.store.mu.RUnlock()

	for id, task := range tx.staged {
		merged[id] = task
	}
	for id := range tx.deleted {
		delete(merged, id)
	}

	result := make([]*domain.Task, 0, len(merged))
	for _, task := range merged {
		if filter.OwnerID != nil && task.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Completed != nil && task.Completed != *filter.Completed {
			continue
		}
		result = append(result, task.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return domain.ByCreatedAt(result[i], result[j]) < 0
	})
	return result, nil
}

func (tx *memTx) PutTask(task *domain.Task) error {
	delete(tx.deleted, task.ID)
	tx.staged[task.ID] = task.Clone()
	return nil
}

func (tx *memTx) DeleteTask(id string) error {
	if _, err := tx.GetTask(id); err != nil {
		return err
	}
	delete(tx.staged, id)
	tx.deleted[id] = true
	return nil
}

func (tx *memTx) GetUser(id string) (*domain.User, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	user, ok := tx.store.users[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "user", ID: id}
	}
	return user.Clone(), nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for id, task := range tx.staged {
		tx.store.tasks[id] = task
	}
	for id := range tx.deleted {
		delete(tx.store.tasks, id)
	}
	tx.done = true
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.staged = make(map[string]*domain.Task)
	tx.deleted = make(map[string]bool)
	tx.done = true
	return nil
}
