package cart

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NotFoundError indicates a cart id with no active cart.
type NotFoundError struct {
	CartID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cart %s not found", e.CartID)
}

// Store is an in-memory registry of active carts keyed by cart id.
//
// The mutex guards only the map: each cart belongs to a single terminal's
// in-progress sale and is mutated by one caller at a time, so the carts
// themselves carry no locking.
type Store struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

// NewStore creates an empty cart store.
func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Create registers a new empty cart and returns it.
func (s *Store) Create() *Cart {
	c := New(uuid.New().String())

	s.mu.Lock()
	s.carts[c.ID()] = c
	s.mu.Unlock()

	return c
}

// Get returns the cart with the given id.
func (s *Store) Get(id string) (*Cart, error) {
	s.mu.RLock()
	c, ok := s.carts[id]
	s.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{CartID: id}
	}
	return c, nil
}

// Delete destroys the cart with the given id. Used on sale completion,
// hold, and cancel.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[id]; !ok {
		return &NotFoundError{CartID: id}
	}
	delete(s.carts, id)
	return nil
}
