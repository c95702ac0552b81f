package store

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a thread-safe, in-process implementation of the full
// persistence surface: catalog, carts, orders, tickets, and memory. A
// Postgres-backed implementation can satisfy the same interfaces later
// without touching callers.
type MemoryStore struct {
	mu sync.RWMutex

	counters map[string]int

	products     map[string]*Product
	carts        map[string]*Cart // keyed by userID if present, else sessionID
	orders       map[string]*Order
	tickets      map[string]*SupportTicket
	memories     map[string]*Memory // keyed by userID
	idempotency  map[string]string  // idempotency key -> order ID

	users map[string]*User
}

// NewMemoryStore builds a MemoryStore pre-seeded with the demo catalog.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		counters: map[string]int{},
		products: map[string]*Product{},
		carts:    map[string]*Cart{},
		orders:   map[string]*Order{},
		tickets:     map[string]*SupportTicket{},
		memories:    map[string]*Memory{},
		idempotency: map[string]string{},
		users:       map[string]*User{},
	}
	s.seedCatalog()
	return s
}

// nextID mints a sequential, zero-padded ID scoped to prefix, mirroring
// the teacher's session/message ID counters.
func (s *MemoryStore) nextID(prefix string) string {
	s.counters[prefix]++
	return fmt.Sprintf("%s_%06d", prefix, s.counters[prefix])
}

func (s *MemoryStore) seedCatalog() {
	now := time.Now()
	seed := []*Product{
		{
			ID: "prod_001", Name: "Running Shoes Pro",
			Description: "Lightweight daily trainer with responsive foam.",
			Category:    "shoes", Brand: "StrideForge", Price: 129.99, Currency: "usd",
			Images: []string{"/images/prod_001_1.jpg"},
			Variants: []Variant{
				{ID: "var_001", Size: "9", Color: "black", InStock: true},
				{ID: "var_002", Size: "10", Color: "black", InStock: true},
			},
			Rating: 4.6, ReviewCount: 312, Tags: []string{"running", "daily trainer"},
			Features: []string{"breathable mesh", "responsive foam"},
			Status:   "active", CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prod_002", Name: "Trail Runner X",
			Description: "Aggressive lug trail shoe for technical terrain.",
			Category:    "shoes", Brand: "PeakRoute", Price: 149.99, Currency: "usd",
			Images: []string{"/images/prod_002_1.jpg"},
			Variants: []Variant{
				{ID: "var_003", Size: "9", Color: "grey", InStock: true},
				{ID: "var_004", Size: "10", Color: "grey", InStock: false},
			},
			Rating: 4.4, ReviewCount: 158, Tags: []string{"trail", "running"},
			Features: []string{"rock plate", "aggressive lugs"},
			Status:   "active", CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prod_003", Name: "Performance Hoodie",
			Description: "Midweight training hoodie with thumbholes.",
			Category:    "clothing", Brand: "AeroThread", Price: 79.99, Currency: "usd",
			Images: []string{"/images/prod_003_1.jpg"},
			Variants: []Variant{
				{ID: "var_005", Size: "M", Color: "navy", InStock: true},
				{ID: "var_006", Size: "L", Color: "navy", InStock: true},
			},
			Rating: 4.5, ReviewCount: 204, Tags: []string{"hoodie", "training"},
			Features: []string{"thumbholes", "moisture-wicking"},
			Status:   "active", CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prod_004", Name: "Everyday Joggers",
			Description: "Tapered joggers for warm-ups and travel.",
			Category:    "clothing", Brand: "AeroThread", Price: 64.50, Currency: "usd",
			Images: []string{"/images/prod_004_1.jpg"},
			Variants: []Variant{
				{ID: "var_007", Size: "M", Color: "black", InStock: true},
				{ID: "var_008", Size: "L", Color: "black", InStock: true},
			},
			Rating: 4.3, ReviewCount: 97, Tags: []string{"joggers", "casual"},
			Features: []string{"tapered fit", "zip pockets"},
			Status:   "active", CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prod_005", Name: "Support Socks Pack",
			Description: "3-pack cushioned socks with arch support.",
			Category:    "accessories", Brand: "CarryWorks", Price: 24.99, Currency: "usd",
			Images: []string{"/images/prod_005_1.jpg"},
			Variants: []Variant{
				{ID: "var_009", Size: "M", Color: "white", InStock: true},
				{ID: "var_010", Size: "L", Color: "white", InStock: true},
			},
			Rating: 4.7, ReviewCount: 441, Tags: []string{"socks", "accessories"},
			Features: []string{"arch support", "3-pack"},
			Status:   "active", CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "prod_006", Name: "Training Backpack",
			Description: "25L gym bag with ventilated shoe compartment.",
			Category:    "accessories", Brand: "CarryWorks", Price: 89.00, Currency: "usd",
			Images: []string{"/images/prod_006_1.jpg"},
			Variants: []Variant{
				{ID: "var_011", Size: "one-size", Color: "black", InStock: true},
			},
			Rating: 4.2, ReviewCount: 63, Tags: []string{"backpack", "gym bag"},
			Features: []string{"shoe compartment", "25L"},
			Status:   "active", CreatedAt: now, UpdatedAt: now,
		},
	}
	for _, p := range seed {
		s.products[p.ID] = p
	}
}

// ---- Products ----

func (s *MemoryStore) ListProducts() []*Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) GetProduct(id string) (*Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// ---- Carts ----

func cartKey(userID, sessionID string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "session:" + sessionID
}

// GetOrCreateCart returns the shopper's cart, creating an empty one on
// first access. No tax or shipping is applied here; the cart agent's
// recalculation applies them, keeping the store free of pricing policy.
func (s *MemoryStore) GetOrCreateCart(userID, sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey(userID, sessionID)
	if c, ok := s.carts[key]; ok {
		return c
	}
	now := time.Now()
	c := &Cart{
		ID: s.nextID("cart"), UserID: userID, SessionID: sessionID,
		Items: []CartItem{}, Currency: "usd", CreatedAt: now, UpdatedAt: now,
	}
	s.carts[key] = c
	return c
}

// SaveCart persists an updated cart under the same key it was fetched with.
func (s *MemoryStore) SaveCart(c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = time.Now()
	s.carts[cartKey(c.UserID, c.SessionID)] = c
}

// AttachCartToUser re-keys a session cart under a newly authenticated
// user, merging into any existing user cart if one already exists.
func (s *MemoryStore) AttachCartToUser(sessionID, userID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessKey := cartKey("", sessionID)
	userKey := cartKey(userID, "")
	sessCart, hasSess := s.carts[sessKey]
	if !hasSess {
		return s.getOrCreateCartLocked(userID, "")
	}
	if userCart, ok := s.carts[userKey]; ok {
		userCart.Items = append(userCart.Items, sessCart.Items...)
		delete(s.carts, sessKey)
		userCart.UpdatedAt = time.Now()
		return userCart
	}
	sessCart.UserID = userID
	sessCart.SessionID = ""
	delete(s.carts, sessKey)
	s.carts[userKey] = sessCart
	return sessCart
}

func (s *MemoryStore) getOrCreateCartLocked(userID, sessionID string) *Cart {
	key := cartKey(userID, sessionID)
	if c, ok := s.carts[key]; ok {
		return c
	}
	now := time.Now()
	c := &Cart{
		ID: s.nextID("cart"), UserID: userID, SessionID: sessionID,
		Items: []CartItem{}, Currency: "usd", CreatedAt: now, UpdatedAt: now,
	}
	s.carts[key] = c
	return c
}

// ListAbandonedCarts returns non-empty, unconverted carts last updated
// before cutoff — the candidate pool the voice scheduler's enqueue
// phase scans every tick.
func (s *MemoryStore) ListAbandonedCarts(cutoff time.Time) []*Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Cart, 0)
	for _, c := range s.carts {
		if c.Converted || len(c.Items) == 0 {
			continue
		}
		if c.UpdatedAt.Before(cutoff) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}

// NextItemID mints an ID for a new cart line item.
func (s *MemoryStore) NextItemID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID("item")
}

// ---- Orders ----

// ReserveOrderID mints an order ID for the caller to assemble and then
// commit with CommitOrder. Kept as two steps so the order agent can
// build the full record (inventory/payment already resolved) before
// taking the store lock.
func (s *MemoryStore) ReserveOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID("order")
}

func (s *MemoryStore) CommitOrder(o *Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *MemoryStore) GetOrder(id string) (*Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *MemoryStore) ListOrdersForUser(userID string) []*Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) SaveOrder(o *Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.UpdatedAt = time.Now()
	s.orders[o.ID] = o
}

// CheckIdempotency returns the order already created for key, if any.
func (s *MemoryStore) CheckIdempotency(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.idempotency[key]
	return id, ok
}

// CommitIdempotency records that key produced orderID, so a retried
// checkout request with the same key returns the existing order instead
// of placing a duplicate.
func (s *MemoryStore) CommitIdempotency(key, orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[key] = orderID
}

// MarkCartConverted flags a cart as spent so it stops being offered as
// the shopper's active cart by callers that check Converted.
func (s *MemoryStore) MarkCartConverted(c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Converted = true
	c.UpdatedAt = time.Now()
}

// ---- Support tickets ----

func (s *MemoryStore) CreateTicket(t *SupportTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID("ticket")
	s.tickets[t.ID] = t
}

func (s *MemoryStore) GetTicket(id string) (*SupportTicket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	return t, ok
}

func (s *MemoryStore) SaveTicket(t *SupportTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.UpdatedAt = time.Now()
	s.tickets[t.ID] = t
}

// ListTicketsForSession returns tickets for a session or user, newest first.
func (s *MemoryStore) ListTicketsForSession(userID, sessionID string) []*SupportTicket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*SupportTicket, 0)
	for _, t := range s.tickets {
		if (userID != "" && t.UserID == userID) || (userID == "" && t.SessionID == sessionID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// LatestOpenTicket returns the most recently created open/in_progress
// ticket for a shopper, or nil if none is open.
func (s *MemoryStore) LatestOpenTicket(userID, sessionID string) *SupportTicket {
	for _, t := range s.ListTicketsForSession(userID, sessionID) {
		if t.Status == "open" || t.Status == "in_progress" {
			return t
		}
	}
	return nil
}

// ---- Memory ----

func defaultMemory() *Memory {
	return &Memory{
		Preferences: Preferences{
			BrandPreferences: []string{},
			Categories:       []string{},
			StylePreferences: []string{},
			ColorPreferences: []string{},
		},
		InteractionHistory: []InteractionSummary{},
		ProductAffinities: ProductAffinities{
			Brands:     map[string]int{},
			Categories: map[string]int{},
			Products:   map[string]int{},
		},
		UpdatedAt: time.Now(),
	}
}

// GetMemory returns a shopper's memory document, lazily creating the
// default on first access.
func (s *MemoryStore) GetMemory(userID string) *Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[userID]
	if !ok {
		m = defaultMemory()
		s.memories[userID] = m
	}
	return m
}

func (s *MemoryStore) SaveMemory(userID string, m *Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.UpdatedAt = time.Now()
	s.memories[userID] = m
}

// ---- Users ----

func (s *MemoryStore) GetUser(id string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *MemoryStore) SaveUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.UpdatedAt = time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = u.UpdatedAt
	}
	s.users[u.ID] = u
}
