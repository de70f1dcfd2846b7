package store

// StatusPending is the status every order is created with. The core
// never advances it; fulfilment would happen elsewhere.
const StatusPending = "Pending"

type User struct {
	Username  string            `json:"username"`
	Password  string            `json:"password"`
	CreatedAt string            `json:"createdAt"`
	Profile   map[string]string `json:"profile,omitempty"`
}

// Cart maps product id to quantity. Quantities are always positive;
// a write of zero or less removes the entry instead.
type Cart map[int]int

type LineItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

type Order struct {
	ID              int        `json:"id"`
	Username        string     `json:"username"`
	Items           []LineItem `json:"items"`
	TotalPrice      float64    `json:"totalPrice"`
	Status          string     `json:"status"`
	OrderDate       string     `json:"orderDate"`
	ShippingAddress string     `json:"shippingAddress"`
	PaymentMethod   string     `json:"paymentMethod"`
}

// Root is the unit of persistence: one JSON document holding every
// entity map plus the order-id counter.
type Root struct {
	Users        map[string]User   `json:"users"`
	Sessions     map[string]string `json:"sessions"`
	Carts        map[string]Cart   `json:"carts"`
	Orders       []Order           `json:"orders"`
	OrderCounter int               `json:"orderCounter"`
}

func emptyRoot() Root {
	return Root{
		Users:        map[string]User{},
		Sessions:     map[string]string{},
		Carts:        map[string]Cart{},
		Orders:       []Order{},
		OrderCounter: 1,
	}
}

// fillDefaults makes each slot independently usable when the loaded
// document omitted it.
func (r *Root) fillDefaults() {
	if r.Users == nil {
		r.Users = map[string]User{}
	}
	if r.Sessions == nil {
		r.Sessions = map[string]string{}
	}
	if r.Carts == nil {
		r.Carts = map[string]Cart{}
	}
	if r.Orders == nil {
		r.Orders = []Order{}
	}
	if r.OrderCounter < 1 {
		r.OrderCounter = 1
	}
}

func (u User) clone() User {
	if u.Profile != nil {
		p := make(map[string]string, len(u.Profile))
		for k, v := range u.Profile {
			p[k] = v
		}
		u.Profile = p
	}
	return u
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}

func (o Order) clone() Order {
	if o.Items != nil {
		items := make([]LineItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

func (r Root) clone() Root {
	out := Root{
		Users:        make(map[string]User, len(r.Users)),
		Sessions:     make(map[string]string, len(r.Sessions)),
		Carts:        make(map[string]Cart, len(r.Carts)),
		Orders:       make([]Order, 0, len(r.Orders)),
		OrderCounter: r.OrderCounter,
	}
	for k, u := range r.Users {
		out.Users[k] = u.clone()
	}
	for k, v := range r.Sessions {
		out.Sessions[k] = v
	}
	for k, c := range r.Carts {
		out.Carts[k] = c.clone()
	}
	for _, o := range r.Orders {
		out.Orders = append(out.Orders, o.clone())
	}
	return out
}
