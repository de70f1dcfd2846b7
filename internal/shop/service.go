// Package shop binds sessions to users, users to carts and carts to
// orders, on top of the data store and the read-only catalog.
package shop

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cartkeeper/internal/catalog"
	"cartkeeper/internal/store"
)

type Service struct {
	Store   *store.Store
	Catalog *catalog.Store
	Log     *zap.Logger

	// AutoRegister provisions unknown usernames on first login with
	// the supplied password. Inherited behavior; configurable so
	// deployments can turn it off.
	AutoRegister bool
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Register creates a user with the supplied profile fields. Fails when
// the username is taken.
func (s *Service) Register(username, password string, profile map[string]string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.New("username and password required")
	}

	u := store.User{
		Username:  username,
		Password:  password,
		CreatedAt: now(),
		Profile:   map[string]string{},
	}
	for k, v := range profile {
		u.Profile[k] = v
	}

	if !s.Store.CreateUser(u) {
		return fmt.Errorf("%w: %s", ErrDuplicateUser, username)
	}
	return nil
}

// Login validates credentials and mints a new session. Unknown users
// are auto-provisioned when AutoRegister is on; each login gets an
// independent session, so concurrent sessions per user are fine.
func (s *Service) Login(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	u, ok := s.Store.User(username)
	if !ok {
		if !s.AutoRegister {
			return "", ErrInvalidCredentials
		}
		u = store.User{Username: username, Password: password, CreatedAt: now()}
		if !s.Store.CreateUser(u) {
			// lost the race to a concurrent first login
			u, _ = s.Store.User(username)
		}
		s.Log.Info("auto-provisioned user on login", zap.String("username", username))
	}
	if u.Password != password {
		return "", ErrInvalidCredentials
	}

	sessionID := "s_" + uuid.NewString()
	s.Store.SaveSession(sessionID, username)
	return sessionID, nil
}

// Logout destroys the session. Unknown session ids are ignored.
func (s *Service) Logout(sessionID string) {
	s.Store.RemoveSession(sessionID)
}

// ResolveSession maps a session id to its username.
func (s *Service) ResolveSession(sessionID string) (string, error) {
	username, ok := s.Store.SessionUser(sessionID)
	if !ok {
		return "", ErrInvalidSession
	}
	return username, nil
}

// CartView is a cart joined against the catalog, with per-line and
// grand totals. Lines whose product has left the catalog are omitted.
type CartView struct {
	Items []store.LineItem `json:"items"`
	Total float64          `json:"total"`
}

func (s *Service) Cart(username string) CartView {
	cart := s.Store.UserCart(username)

	view := CartView{Items: []store.LineItem{}}
	for _, id := range cart.SortedIDs() {
		p, ok := s.Catalog.Find(id)
		if !ok {
			continue
		}
		qty := cart[id]
		line := store.LineItem{
			ProductID: id,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Total:     p.Price * float64(qty),
		}
		view.Items = append(view.Items, line)
		view.Total += line.Total
	}
	return view
}

// AddToCart increments the quantity of a catalog product in the user's
// cart.
func (s *Service) AddToCart(username string, productID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if _, ok := s.Catalog.Find(productID); !ok {
		return fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
	}

	s.Store.AddCartItem(username, productID, quantity)
	return nil
}

// UpdateCartItem replaces the quantity of one cart line; zero or less
// deletes the line.
func (s *Service) UpdateCartItem(username string, productID, quantity int) {
	s.Store.SetCartItem(username, productID, quantity)
}

// RemoveFromCart deletes one cart line; removing an absent line
// succeeds silently.
func (s *Service) RemoveFromCart(username string, productID int) {
	s.Store.RemoveCartItem(username, productID)
}

func (s *Service) ClearCart(username string) {
	s.Store.ClearUserCart(username)
}

// Checkout snapshots the cart against current catalog prices into a
// new pending order and clears the cart. Later catalog price changes
// do not touch the order.
func (s *Service) Checkout(username, shippingAddress, paymentMethod string) (store.Order, error) {
	cart := s.Store.UserCart(username)
	if len(cart) == 0 {
		return store.Order{}, ErrEmptyCart
	}

	items := make([]store.LineItem, 0, len(cart))
	var total float64
	for _, id := range cart.SortedIDs() {
		p, ok := s.Catalog.Find(id)
		if !ok {
			return store.Order{}, fmt.Errorf("%w: product %d", ErrProductNotFound, id)
		}
		qty := cart[id]
		line := store.LineItem{
			ProductID: id,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Total:     p.Price * float64(qty),
		}
		items = append(items, line)
		total += line.Total
	}

	o := store.Order{
		ID:              s.Store.NextOrderID(),
		Username:        username,
		Items:           items,
		TotalPrice:      total,
		Status:          store.StatusPending,
		OrderDate:       now(),
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
	}

	s.Store.PlaceOrder(username, o)
	s.Log.Info("order placed",
		zap.Int("order_id", o.ID),
		zap.String("username", username),
		zap.Float64("total", total),
	)
	return o, nil
}

func (s *Service) Orders(username string) []store.Order {
	return s.Store.UserOrders(username)
}

func (s *Service) Order(id int, username string) (store.Order, error) {
	o, ok := s.Store.Order(id, username)
	if !ok {
		return store.Order{}, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return o, nil
}

// Admin surface, delegated to the store.

func (s *Service) Statistics() store.Stats        { return s.Store.Stats() }
func (s *Service) CreateBackup(name string) error { return s.Store.Backup(name) }
func (s *Service) RestoreBackup(name string) error {
	return s.Store.Restore(name)
}
func (s *Service) ExportData() (string, error) { return s.Store.ExportJSON() }
func (s *Service) ClearAllData()               { s.Store.ClearAll() }
