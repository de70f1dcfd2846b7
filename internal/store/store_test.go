package store_test

import (
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"cartkeeper/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.Open(filepath.Join(t.TempDir(), "data.json"), zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func TestNextOrderID_ConcurrentDistinctConsecutive(t *testing.T) {
	s := newTestStore(t)

	const n = 200
	ids := make(chan int, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.NextOrderID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate order id %d", id)
		}
		seen[id] = true
	}
	for want := 1; want <= n; want++ {
		if !seen[want] {
			t.Fatalf("missing order id %d", want)
		}
	}
	if next := s.NextOrderID(); next != n+1 {
		t.Fatalf("counter after %d allocations = %d, want %d", n, next, n+1)
	}
}

func TestUserCart_GetOrCreateReturnsCopy(t *testing.T) {
	s := newTestStore(t)

	c := s.UserCart("alice")
	if c == nil || len(c) != 0 {
		t.Fatalf("first access cart = %v, want empty", c)
	}

	c[1] = 99
	if got := s.UserCart("alice"); len(got) != 0 {
		t.Fatalf("mutating returned cart leaked into store: %v", got)
	}
}

func TestAddCartItem_Accumulates(t *testing.T) {
	s := newTestStore(t)

	quantities := []int{2, 3, 1, 4}
	sum := 0
	for _, q := range quantities {
		s.AddCartItem("alice", 7, q)
		sum += q
	}

	if got := s.UserCart("alice")[7]; got != sum {
		t.Fatalf("quantity = %d, want %d", got, sum)
	}
}

func TestSetCartItem_ZeroDeletes(t *testing.T) {
	s := newTestStore(t)

	s.SetCartItem("alice", 7, 5)
	s.SetCartItem("alice", 7, 0)

	if _, ok := s.UserCart("alice")[7]; ok {
		t.Fatalf("line survived a zero-quantity update")
	}

	s.SetCartItem("alice", 8, -3)
	if _, ok := s.UserCart("alice")[8]; ok {
		t.Fatalf("negative quantity was stored")
	}
}

func TestRemoveCartItem_AbsentIsNoop(t *testing.T) {
	s := newTestStore(t)

	s.RemoveCartItem("alice", 42)

	if got := s.UserCart("alice"); len(got) != 0 {
		t.Fatalf("cart = %v, want empty", got)
	}
}

func TestSaveUserCart_DropsNonPositive(t *testing.T) {
	s := newTestStore(t)

	s.SaveUserCart("alice", store.Cart{1: 2, 2: 0, 3: -1})

	got := s.UserCart("alice")
	if len(got) != 1 || got[1] != 2 {
		t.Fatalf("cart = %v, want {1:2}", got)
	}
}

func TestPlaceOrder_AppendsAndClearsCart(t *testing.T) {
	s := newTestStore(t)

	s.AddCartItem("alice", 1, 2)
	o := store.Order{ID: s.NextOrderID(), Username: "alice", Status: store.StatusPending}
	s.PlaceOrder("alice", o)

	if got := s.UserCart("alice"); len(got) != 0 {
		t.Fatalf("cart after place = %v, want empty", got)
	}
	orders := s.UserOrders("alice")
	if len(orders) != 1 || orders[0].ID != o.ID {
		t.Fatalf("orders = %+v, want one order with id %d", orders, o.ID)
	}
}

func TestCreateUser_SecondInsertFails(t *testing.T) {
	s := newTestStore(t)

	if !s.CreateUser(store.User{Username: "alice", Password: "pw"}) {
		t.Fatalf("first create failed")
	}
	if s.CreateUser(store.User{Username: "alice", Password: "pw2"}) {
		t.Fatalf("duplicate create succeeded")
	}

	u, ok := s.User("alice")
	if !ok || u.Password != "pw" {
		t.Fatalf("user = %+v ok=%v, want original password intact", u, ok)
	}
}

func TestSessions_SaveResolveRemove(t *testing.T) {
	s := newTestStore(t)

	s.SaveSession("s_1", "alice")
	if username, ok := s.SessionUser("s_1"); !ok || username != "alice" {
		t.Fatalf("session resolve = %q ok=%v", username, ok)
	}

	s.RemoveSession("s_1")
	if _, ok := s.SessionUser("s_1"); ok {
		t.Fatalf("session survived removal")
	}

	// removing again is fine
	s.RemoveSession("s_1")

	if removed := s.CleanupSessions(); removed != 0 {
		t.Fatalf("cleanup removed %d, want 0", removed)
	}
}

func TestOrder_ScopedToOwner(t *testing.T) {
	s := newTestStore(t)

	s.SaveOrder(store.Order{ID: 1, Username: "alice", TotalPrice: 10})
	s.SaveOrder(store.Order{ID: 2, Username: "bob", TotalPrice: 20})

	if _, ok := s.Order(1, "alice"); !ok {
		t.Fatalf("owner cannot see own order")
	}
	if _, ok := s.Order(1, "bob"); ok {
		t.Fatalf("order visible to non-owner")
	}

	if got := len(s.UserOrders("alice")); got != 1 {
		t.Fatalf("alice orders = %d, want 1", got)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	s.CreateUser(store.User{Username: "alice", Password: "pw"})
	s.CreateUser(store.User{Username: "bob", Password: "pw"})
	s.SaveSession("s_1", "alice")
	s.AddCartItem("alice", 1, 1)
	s.SaveOrder(store.Order{ID: 1, Username: "alice", TotalPrice: 100})
	s.SaveOrder(store.Order{ID: 2, Username: "bob", TotalPrice: 45.5})

	st := s.Stats()
	if st.TotalUsers != 2 || st.ActiveSessions != 1 || st.TotalOrders != 2 || st.TotalCarts != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.TotalRevenue != 145.5 {
		t.Fatalf("revenue = %v, want 145.5", st.TotalRevenue)
	}
}
