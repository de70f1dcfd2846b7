// Package store is the process-wide data store behind the shop: users,
// sessions, carts and orders, held in memory behind one lock and
// persisted as a single JSON document by a background writer.
package store

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Store owns every entity map exclusively. All accessors copy on the
// way in and out, so callers never share live map references.
type Store struct {
	mu   sync.RWMutex
	root Root

	path string
	log  *zap.Logger

	// persistence writer plumbing, see persist.go
	fileMu  sync.Mutex
	dirty   chan struct{}
	flushCh chan chan struct{}
	stopCh  chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

// Open loads the data file at path (or starts empty when it is absent
// or unreadable) and starts the background persistence writer.
func Open(path string, log *zap.Logger) *Store {
	s := &Store{
		root:    emptyRoot(),
		path:    path,
		log:     log,
		dirty:   make(chan struct{}, 1),
		flushCh: make(chan chan struct{}),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.load()
	go s.writeLoop()
	return s
}

// Users

// CreateUser inserts u unless the username is taken. The check and the
// insert happen under one lock acquisition.
func (s *Store) CreateUser(u User) bool {
	s.mu.Lock()
	if _, exists := s.root.Users[u.Username]; exists {
		s.mu.Unlock()
		return false
	}
	s.root.Users[u.Username] = u.clone()
	s.mu.Unlock()

	s.markDirty()
	return true
}

func (s *Store) SaveUser(u User) {
	s.mu.Lock()
	s.root.Users[u.Username] = u.clone()
	s.mu.Unlock()

	s.markDirty()
}

func (s *Store) User(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.root.Users[username]
	return u.clone(), ok
}

// Sessions

func (s *Store) SaveSession(sessionID, username string) {
	s.mu.Lock()
	s.root.Sessions[sessionID] = username
	s.mu.Unlock()

	s.markDirty()
}

func (s *Store) SessionUser(sessionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, ok := s.root.Sessions[sessionID]
	return username, ok
}

func (s *Store) RemoveSession(sessionID string) {
	s.mu.Lock()
	delete(s.root.Sessions, sessionID)
	s.mu.Unlock()

	s.markDirty()
}

// CleanupSessions would evict expired sessions. No expiry is tracked,
// so it currently removes nothing.
// TODO: record a created-at per session so this can actually expire them.
func (s *Store) CleanupSessions() int {
	return 0
}

// Carts

// UserCart returns the user's cart, creating an empty one on first
// access. The returned map is a copy.
func (s *Store) UserCart(username string) Cart {
	s.mu.Lock()
	c, ok := s.root.Carts[username]
	if !ok {
		c = Cart{}
		s.root.Carts[username] = c
	}
	out := c.clone()
	s.mu.Unlock()

	if !ok {
		s.markDirty()
	}
	return out
}

// SaveUserCart replaces the user's cart. Entries with non-positive
// quantities are dropped rather than stored.
func (s *Store) SaveUserCart(username string, cart Cart) {
	clean := make(Cart, len(cart))
	for id, qty := range cart {
		if qty > 0 {
			clean[id] = qty
		}
	}

	s.mu.Lock()
	s.root.Carts[username] = clean
	s.mu.Unlock()

	s.markDirty()
}

// AddCartItem increments the quantity of one cart line and returns the
// new quantity.
func (s *Store) AddCartItem(username string, productID, delta int) int {
	s.mu.Lock()
	c, ok := s.root.Carts[username]
	if !ok {
		c = Cart{}
		s.root.Carts[username] = c
	}
	c[productID] += delta
	qty := c[productID]
	if qty <= 0 {
		delete(c, productID)
	}
	s.mu.Unlock()

	s.markDirty()
	return qty
}

// SetCartItem replaces the quantity of one cart line; a quantity of
// zero or less deletes the line.
func (s *Store) SetCartItem(username string, productID, qty int) {
	s.mu.Lock()
	c, ok := s.root.Carts[username]
	if !ok {
		c = Cart{}
		s.root.Carts[username] = c
	}
	if qty <= 0 {
		delete(c, productID)
	} else {
		c[productID] = qty
	}
	s.mu.Unlock()

	s.markDirty()
}

// RemoveCartItem deletes one cart line. Removing an absent line is a
// no-op.
func (s *Store) RemoveCartItem(username string, productID int) {
	s.SetCartItem(username, productID, 0)
}

func (s *Store) ClearUserCart(username string) {
	s.mu.Lock()
	s.root.Carts[username] = Cart{}
	s.mu.Unlock()

	s.markDirty()
}

// Orders

// NextOrderID returns the current counter value and advances it. No
// two callers ever observe the same value.
func (s *Store) NextOrderID() int {
	s.mu.Lock()
	id := s.root.OrderCounter
	s.root.OrderCounter++
	s.mu.Unlock()

	s.markDirty()
	return id
}

func (s *Store) SaveOrder(o Order) {
	s.mu.Lock()
	s.root.Orders = append(s.root.Orders, o.clone())
	s.mu.Unlock()

	s.markDirty()
}

// PlaceOrder appends the order and clears the owner's cart under a
// single lock acquisition, so a concurrent reader never sees the order
// stored while the just-ordered items still sit in the cart.
func (s *Store) PlaceOrder(username string, o Order) {
	s.mu.Lock()
	s.root.Orders = append(s.root.Orders, o.clone())
	s.root.Carts[username] = Cart{}
	s.mu.Unlock()

	s.markDirty()
}

func (s *Store) UserOrders(username string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Order{}
	for _, o := range s.root.Orders {
		if o.Username == username {
			out = append(out, o.clone())
		}
	}
	return out
}

func (s *Store) Order(id int, username string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.root.Orders {
		if o.ID == id && o.Username == username {
			return o.clone(), true
		}
	}
	return Order{}, false
}

// Stats is the admin statistics surface.
type Stats struct {
	TotalUsers     int     `json:"totalUsers"`
	ActiveSessions int     `json:"activeSessions"`
	TotalOrders    int     `json:"totalOrders"`
	TotalCarts     int     `json:"totalCarts"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		TotalUsers:     len(s.root.Users),
		ActiveSessions: len(s.root.Sessions),
		TotalOrders:    len(s.root.Orders),
		TotalCarts:     len(s.root.Carts),
	}
	for _, o := range s.root.Orders {
		st.TotalRevenue += o.TotalPrice
	}
	return st
}

// Snapshot returns a deep copy of the store root.
func (s *Store) Snapshot() Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.clone()
}

// ClearAll wipes every entity map, resets the order counter to 1 and
// schedules a save.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.root = emptyRoot()
	s.mu.Unlock()

	s.markDirty()
	s.log.Info("all data cleared and reinitialized")
}

// SortedIDs returns the cart's product ids in ascending order, for
// callers that need deterministic iteration.
func (c Cart) SortedIDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
