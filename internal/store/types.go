// Package store is the in-memory persistence layer backing the product
// catalog, carts, orders, support tickets, and shopper memory. It plays
// the role the teacher's SQLite-backed session store plays for chat
// history: a single mutex-guarded map set, safe for concurrent agents.
package store

import "time"

// Variant is one purchasable size/color combination of a Product.
type Variant struct {
	ID      string `json:"id"`
	Size    string `json:"size"`
	Color   string `json:"color"`
	InStock bool   `json:"inStock"`
}

// Product is a catalog entry.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Images      []string  `json:"images"`
	Variants    []Variant `json:"variants"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	Tags        []string  `json:"tags,omitempty"`
	Features    []string  `json:"features,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CartItem is one line item in a Cart.
type CartItem struct {
	ItemID    string  `json:"itemId"`
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

// AppliedDiscount is a discount code currently applied to a Cart.
type AppliedDiscount struct {
	Code  string  `json:"code"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Cart belongs to either a signed-in user or an anonymous session.
type Cart struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId,omitempty"`
	SessionID       string           `json:"sessionId,omitempty"`
	Items           []CartItem       `json:"items"`
	Subtotal        float64          `json:"subtotal"`
	Tax             float64          `json:"tax"`
	Shipping        float64          `json:"shipping"`
	Discount        float64          `json:"discount"`
	Total           float64          `json:"total"`
	ItemCount       int              `json:"itemCount"`
	Currency        string           `json:"currency"`
	AppliedDiscount *AppliedDiscount `json:"appliedDiscount,omitempty"`
	Converted       bool             `json:"-"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// TimelineEvent is one Order status transition.
type TimelineEvent struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// OrderPayment records the payment outcome for an Order.
type OrderPayment struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId,omitempty"`
	Status        string `json:"status"`
}

// ShippingAddress is a postal delivery address.
type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is a placed purchase.
type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Status            string          `json:"status"`
	Items             []CartItem      `json:"items"`
	Subtotal          float64         `json:"subtotal"`
	Tax               float64         `json:"tax"`
	Shipping          float64         `json:"shipping"`
	Discount          float64         `json:"discount"`
	Total             float64         `json:"total"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	Payment           OrderPayment    `json:"payment"`
	Timeline          []TimelineEvent `json:"timeline"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// TicketMessage is one note on a SupportTicket's thread.
type TicketMessage struct {
	Actor     string    `json:"actor"` // "customer" | "support"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SupportTicket is a customer-service case.
type SupportTicket struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId,omitempty"`
	SessionID  string          `json:"sessionId"`
	Issue      string          `json:"issue"`
	Category   string          `json:"category"`
	Priority   string          `json:"priority"`
	Status     string          `json:"status"`
	Channel    string          `json:"channel"`
	Messages   []TicketMessage `json:"messages"`
	Resolution string          `json:"resolution,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// PriceRange bounds a shopper's preferred price window.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences are explicit, shopper-stated preferences.
type Preferences struct {
	Size              string     `json:"size,omitempty"`
	BrandPreferences  []string   `json:"brandPreferences"`
	Categories        []string   `json:"categories"`
	StylePreferences  []string   `json:"stylePreferences"`
	ColorPreferences  []string   `json:"colorPreferences"`
	PriceRange        PriceRange `json:"priceRange"`
}

// InteractionSummary is a compact trace of one orchestrator turn, kept
// for the shopper-visible memory history.
type InteractionSummary struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Action    string    `json:"action"`
	Response  string    `json:"response"`
}

// ProductAffinities are implicit signals accumulated from behavior.
type ProductAffinities struct {
	Brands     map[string]int `json:"brands"`
	Categories map[string]int `json:"categories"`
	Products   map[string]int `json:"products"`
}

// User is a shopper identity record. Phone and Timezone exist for the
// voice-recovery control loop (dialing out, resolving quiet hours); the
// conversational side only ever needs ID/Name/Email.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Memory is the full per-shopper memory record.
type Memory struct {
	Preferences         Preferences           `json:"preferences"`
	InteractionHistory  []InteractionSummary  `json:"interactionHistory"`
	ProductAffinities   ProductAffinities     `json:"productAffinities"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}
