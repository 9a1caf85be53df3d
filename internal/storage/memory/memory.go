// Package memory provides an in-process storage.Store, used for tests and the
// memory data backend. State is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type pairKey struct {
	groupID, from, to string
}

type state struct {
	users      map[string]*models.User
	userOrder  []string
	groups     map[string]*models.Group
	expenses   map[string][]*models.Expense // by group, insertion order
	balances   map[string]*models.Balance   // by ID
	balanceIdx map[pairKey]string
}

func newState() *state {
	return &state{
		users:      make(map[string]*models.User),
		groups:     make(map[string]*models.Group),
		expenses:   make(map[string][]*models.Expense),
		balances:   make(map[string]*models.Balance),
		balanceIdx: make(map[pairKey]string),
	}
}

// clone deep-copies the state so a transaction can be discarded.
func (s *state) clone() *state {
	c := newState()
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	c.userOrder = append([]string(nil), s.userOrder...)
	for id, g := range s.groups {
		c.groups[id] = cloneGroup(g)
	}
	for id, list := range s.expenses {
		// expenses are immutable, so sharing pointers is safe
		c.expenses[id] = append([]*models.Expense(nil), list...)
	}
	for id, b := range s.balances {
		cp := *b
		c.balances[id] = &cp
	}
	for k, v := range s.balanceIdx {
		c.balanceIdx[k] = v
	}
	return c
}

// Store is a mutex-guarded in-memory storage.Store.
//
// Transactions are serialized: WithTx holds txMu for its whole duration and
// works on a copy of the state that replaces the original on success.
type Store struct {
	mu   *sync.RWMutex
	txMu *sync.Mutex
	root **state
	st   *state // non-nil only on a transaction-bound store
}

// New returns an empty store.
func New() *Store {
	st := newState()
	return &Store{mu: &sync.RWMutex{}, txMu: &sync.Mutex{}, root: &st}
}

// read runs fn with the visible state under a read lock.
func (s *Store) read(fn func(st *state) error) error {
	if s.st != nil {
		return fn(s.st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(*s.root)
}

// write runs fn with the visible state under a write lock. Outside a
// transaction it also takes txMu so it cannot interleave with one.
func (s *Store) write(fn func(st *state) error) error {
	if s.st != nil {
		return fn(s.st)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(*s.root)
}

// WithTx runs fn against a private copy of the state and publishes it on success.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.st != nil {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := (*s.root).clone()
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(&Store{mu: s.mu, txMu: s.txMu, root: s.root, st: work}); err != nil {
		return err
	}

	s.mu.Lock()
	*s.root = work
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	return s.write(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return fmt.Errorf("user %s: %w", user.ID, storage.ErrConflict)
		}
		cp := *user
		st.users[user.ID] = &cp
		st.userOrder = append(st.userOrder, user.ID)
		return nil
	})
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	var out *models.User
	err := s.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (s *Store) ListUsers(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	err := s.read(func(st *state) error {
		for _, id := range st.userOrder {
			cp := *st.users[id]
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	err := s.read(func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				cp := *u
				out[id] = &cp
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Members == nil {
		group.Members = []string{}
	}
	return s.write(func(st *state) error {
		if _, ok := st.groups[group.ID]; ok {
			return fmt.Errorf("group %s: %w", group.ID, storage.ErrConflict)
		}
		g := cloneGroup(group)
		g.Members = g.Members[:0]
		for _, m := range group.Members {
			if !g.HasMember(m) {
				g.Members = append(g.Members, m)
			}
		}
		st.groups[group.ID] = g
		return nil
	})
}

func (s *Store) GetGroup(_ context.Context, id string) (*models.Group, error) {
	var out *models.Group
	err := s.read(func(st *state) error {
		g, ok := st.groups[id]
		if !ok {
			return fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
		}
		out = cloneGroup(g)
		return nil
	})
	return out, err
}

func (s *Store) AddGroupMember(_ context.Context, groupID, userID string) error {
	return s.write(func(st *state) error {
		g, ok := st.groups[groupID]
		if !ok {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if !g.HasMember(userID) {
			g.Members = append(g.Members, userID)
		}
		return nil
	})
}

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	return s.write(func(st *state) error {
		st.expenses[expense.GroupID] = append(st.expenses[expense.GroupID], cloneExpense(expense))
		return nil
	})
}

func (s *Store) ListExpensesByGroup(_ context.Context, groupID string) ([]*models.Expense, error) {
	var out []*models.Expense
	err := s.read(func(st *state) error {
		list := st.expenses[groupID]
		for i := len(list) - 1; i >= 0; i-- {
			out = append(out, cloneExpense(list[i]))
		}
		return nil
	})
	// newest first; insertion order breaks ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, err
}

func (s *Store) GetBalance(_ context.Context, groupID, fromUser, toUser string) (*models.Balance, error) {
	var out *models.Balance
	err := s.read(func(st *state) error {
		id, ok := st.balanceIdx[pairKey{groupID, fromUser, toUser}]
		if !ok {
			return fmt.Errorf("balance %s→%s: %w", fromUser, toUser, storage.ErrNotFound)
		}
		cp := *st.balances[id]
		out = &cp
		return nil
	})
	return out, err
}

func (s *Store) ListBalancesByGroup(_ context.Context, groupID string) ([]*models.Balance, error) {
	var out []*models.Balance
	err := s.read(func(st *state) error {
		for _, b := range st.balances {
			if b.GroupID == groupID {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		if out[i].FromUser != out[j].FromUser {
			return out[i].FromUser < out[j].FromUser
		}
		return out[i].ToUser < out[j].ToUser
	})
	return out, err
}

func (s *Store) CreateBalance(_ context.Context, b *models.Balance) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return s.write(func(st *state) error {
		key := pairKey{b.GroupID, b.FromUser, b.ToUser}
		if _, ok := st.balanceIdx[key]; ok {
			return fmt.Errorf("balance %s→%s: %w", b.FromUser, b.ToUser, storage.ErrConflict)
		}
		if _, ok := st.groups[b.GroupID]; !ok {
			return fmt.Errorf("group %s: %w", b.GroupID, storage.ErrNotFound)
		}
		cp := *b
		st.balances[b.ID] = &cp
		st.balanceIdx[key] = b.ID
		return nil
	})
}

func (s *Store) UpdateBalanceAmount(_ context.Context, id string, amount money.Cents) error {
	return s.write(func(st *state) error {
		b, ok := st.balances[id]
		if !ok {
			return fmt.Errorf("balance %s: %w", id, storage.ErrNotFound)
		}
		b.Amount = amount
		b.UpdatedAt = time.Now().Unix()
		return nil
	})
}

func (s *Store) DeleteBalance(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		b, ok := st.balances[id]
		if !ok {
			return fmt.Errorf("balance %s: %w", id, storage.ErrNotFound)
		}
		delete(st.balances, id)
		delete(st.balanceIdx, pairKey{b.GroupID, b.FromUser, b.ToUser})
		return nil
	})
}

func cloneGroup(g *models.Group) *models.Group {
	cp := *g
	cp.Members = append([]string{}, g.Members...)
	return &cp
}

func cloneExpense(e *models.Expense) *models.Expense {
	cp := *e
	cp.Participants = append([]string{}, e.Participants...)
	if e.Splits != nil {
		cp.Splits = make(map[string]decimal.Decimal, len(e.Splits))
		for k, v := range e.Splits {
			cp.Splits[k] = v
		}
	}
	return &cp
}
