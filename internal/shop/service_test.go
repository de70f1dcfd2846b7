package shop_test

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"cartkeeper/internal/catalog"
	"cartkeeper/internal/shop"
	"cartkeeper/internal/store"
)

func newTestService(t *testing.T, autoRegister bool) *shop.Service {
	t.Helper()

	st := store.Open(filepath.Join(t.TempDir(), "data.json"), zap.NewNop())
	t.Cleanup(st.Close)

	cat := catalog.NewStore(
		catalog.Product{ID: 1, Name: "Laptop", Price: 750},
		catalog.Product{ID: 3, Name: "Keyboard", Price: 45},
	)

	return &shop.Service{
		Store:        st,
		Catalog:      cat,
		Log:          zap.NewNop(),
		AutoRegister: autoRegister,
	}
}

func TestRegister_DuplicateKeepsOriginalPassword(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.Register("alice", "pw", nil); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := svc.Register("alice", "pw2", nil); !errors.Is(err, shop.ErrDuplicateUser) {
		t.Fatalf("second register err = %v, want ErrDuplicateUser", err)
	}

	if _, err := svc.Login("alice", "pw"); err != nil {
		t.Fatalf("login with original password: %v", err)
	}
	if _, err := svc.Login("alice", "pw2"); !errors.Is(err, shop.ErrInvalidCredentials) {
		t.Fatalf("login with rejected password err = %v", err)
	}
}

func TestRegister_ProfileStored(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.Register("alice", "pw", map[string]string{"city": "Riga"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, ok := svc.Store.User("alice")
	if !ok || u.Profile["city"] != "Riga" {
		t.Fatalf("user = %+v ok=%v", u, ok)
	}
	if u.CreatedAt == "" {
		t.Fatalf("createdAt not set")
	}
}

func TestLogin_MintsIndependentSessions(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.Register("alice", "pw", nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	s1, err := svc.Login("alice", "pw")
	if err != nil {
		t.Fatalf("login 1: %v", err)
	}
	s2, err := svc.Login("alice", "pw")
	if err != nil {
		t.Fatalf("login 2: %v", err)
	}
	if s1 == s2 {
		t.Fatalf("two logins share a session id")
	}

	svc.Logout(s1)
	if _, err := svc.ResolveSession(s1); !errors.Is(err, shop.ErrInvalidSession) {
		t.Fatalf("s1 still valid after logout: %v", err)
	}
	if username, err := svc.ResolveSession(s2); err != nil || username != "alice" {
		t.Fatalf("s2 = %q err=%v, want alice", username, err)
	}

	// logout of an already-dead session is silent
	svc.Logout(s1)
}

func TestLogin_AutoRegister(t *testing.T) {
	svc := newTestService(t, true)

	sid, err := svc.Login("newcomer", "secret")
	if err != nil {
		t.Fatalf("auto-register login: %v", err)
	}
	if sid == "" {
		t.Fatalf("empty session id")
	}

	if _, err := svc.Login("newcomer", "wrong"); !errors.Is(err, shop.ErrInvalidCredentials) {
		t.Fatalf("wrong password after auto-register err = %v", err)
	}
}

func TestLogin_UnknownUserRejectedWhenAutoRegisterOff(t *testing.T) {
	svc := newTestService(t, false)

	if _, err := svc.Login("ghost", "pw"); !errors.Is(err, shop.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, ok := svc.Store.User("ghost"); ok {
		t.Fatalf("rejected login still created the user")
	}
}

func TestAddToCart_Validation(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.AddToCart("alice", 1, 0); !errors.Is(err, shop.ErrInvalidQuantity) {
		t.Fatalf("qty 0 err = %v", err)
	}
	if err := svc.AddToCart("alice", 1, -2); !errors.Is(err, shop.ErrInvalidQuantity) {
		t.Fatalf("qty -2 err = %v", err)
	}
	if err := svc.AddToCart("alice", 999, 1); !errors.Is(err, shop.ErrProductNotFound) {
		t.Fatalf("unknown product err = %v", err)
	}
}

func TestAddToCart_AccumulatesAcrossCalls(t *testing.T) {
	svc := newTestService(t, false)

	quantities := []int{1, 2, 5}
	sum := 0
	for _, q := range quantities {
		if err := svc.AddToCart("alice", 1, q); err != nil {
			t.Fatalf("add qty %d: %v", q, err)
		}
		sum += q
	}

	view := svc.Cart("alice")
	if len(view.Items) != 1 || view.Items[0].Quantity != sum {
		t.Fatalf("cart = %+v, want quantity %d", view, sum)
	}
	if view.Total != 750*float64(sum) {
		t.Fatalf("total = %v, want %v", view.Total, 750*float64(sum))
	}
}

func TestUpdateCartItem_ZeroDeletesLine(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.AddToCart("alice", 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	svc.UpdateCartItem("alice", 1, 0)

	for _, item := range svc.Cart("alice").Items {
		if item.ProductID == 1 {
			t.Fatalf("line survived a zero update: %+v", item)
		}
	}
}

func TestRemoveFromCart_Idempotent(t *testing.T) {
	svc := newTestService(t, false)

	svc.RemoveFromCart("alice", 1)
	svc.RemoveFromCart("alice", 1)
	svc.ClearCart("alice")

	if view := svc.Cart("alice"); len(view.Items) != 0 || view.Total != 0 {
		t.Fatalf("cart = %+v, want empty", view)
	}
}

func TestCheckout(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.AddToCart("alice", 1, 2); err != nil {
		t.Fatalf("add laptop: %v", err)
	}
	if err := svc.AddToCart("alice", 3, 1); err != nil {
		t.Fatalf("add keyboard: %v", err)
	}

	o, err := svc.Checkout("alice", "10 Main St", "card")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if o.TotalPrice != 1545 {
		t.Fatalf("total = %v, want 1545", o.TotalPrice)
	}
	if o.Status != store.StatusPending {
		t.Fatalf("status = %q, want %q", o.Status, store.StatusPending)
	}
	if o.ID != 1 {
		t.Fatalf("first order id = %d, want 1", o.ID)
	}
	if o.ShippingAddress != "10 Main St" || o.PaymentMethod != "card" {
		t.Fatalf("order = %+v, caller values lost", o)
	}
	if len(o.Items) != 2 || o.Items[0].ProductID != 1 || o.Items[1].ProductID != 3 {
		t.Fatalf("items = %+v, want products 1 then 3", o.Items)
	}
	if o.Items[0].Total != 1500 || o.Items[1].Total != 45 {
		t.Fatalf("line totals = %+v", o.Items)
	}
	if o.OrderDate == "" {
		t.Fatalf("orderDate not set")
	}

	if view := svc.Cart("alice"); len(view.Items) != 0 {
		t.Fatalf("cart after checkout = %+v, want empty", view)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService(t, false)

	if _, err := svc.Checkout("alice", "", ""); !errors.Is(err, shop.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestCheckout_ConsecutiveOrderIDs(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.AddToCart("alice", 3, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	o, err := svc.Checkout("alice", "", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// later orders allocate fresh ids and leave the first order alone
	if err := svc.AddToCart("alice", 1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	o2, err := svc.Checkout("alice", "", "")
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if o2.ID != o.ID+1 {
		t.Fatalf("ids = %d then %d, want consecutive", o.ID, o2.ID)
	}

	got, err := svc.Order(o.ID, "alice")
	if err != nil || got.TotalPrice != 45 {
		t.Fatalf("first order = %+v err=%v", got, err)
	}
}

func TestOrders_ScopedToOwner(t *testing.T) {
	svc := newTestService(t, false)

	if err := svc.AddToCart("alice", 1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	o, err := svc.Checkout("alice", "", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := svc.Order(o.ID, "bob"); !errors.Is(err, shop.ErrOrderNotFound) {
		t.Fatalf("foreign order err = %v, want ErrOrderNotFound", err)
	}
	if got := svc.Orders("bob"); len(got) != 0 {
		t.Fatalf("bob orders = %+v, want none", got)
	}
}
