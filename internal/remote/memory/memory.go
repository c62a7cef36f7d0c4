package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hotelpro/internal/remote"
)

// FailFunc decides whether an operation should fail. op is "upsert" or
// "delete".
type FailFunc func(op, table, id string) error

type Store struct {
	mu   sync.Mutex
	rows map[string]map[string][]byte
	fail FailFunc
	ops  int
}

func New() *Store {
	return &Store{rows: map[string]map[string][]byte{}}
}

// SetFailFunc installs a hook used to simulate remote outages.
func (s *Store) SetFailFunc(f FailFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = f
}

func (s *Store) Upsert(ctx context.Context, table, id string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := remote.CheckTable(table); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if s.fail != nil {
		if err := s.fail("upsert", table, id); err != nil {
			return err
		}
	}
	t, ok := s.rows[table]
	if !ok {
		t = map[string][]byte{}
		s.rows[table] = t
	}
	t[id] = append([]byte(nil), payload...)
	return nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := remote.CheckTable(table); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops++
	if s.fail != nil {
		if err := s.fail("delete", table, id); err != nil {
			return err
		}
	}
	delete(s.rows[table], id)
	return nil
}

func (s *Store) Get(_ context.Context, table, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[table][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", table, id, remote.ErrNotFound)
	}
	return append([]byte(nil), p...), nil
}

// List returns the rows of a table ordered by id.
func (s *Store) List(_ context.Context, table string) ([]remote.Row, error) {
	if err := remote.CheckTable(table); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]remote.Row, 0, len(s.rows[table]))
	for id, p := range s.rows[table] {
		out = append(out, remote.Row{Table: table, ID: id, Payload: append([]byte(nil), p...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Ops counts the upsert and delete calls received, failed ones included.
func (s *Store) Ops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops
}
