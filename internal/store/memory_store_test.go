package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewMemoryStoreSeedsCatalog(t *testing.T) {
	s := NewMemoryStore()
	products := s.ListProducts()
	require.NotEmpty(t, products)
	for _, p := range products {
		require.NotEmpty(t, p.Variants)
	}
}

func TestGetOrCreateCartIsIdempotentPerKey(t *testing.T) {
	s := NewMemoryStore()
	c1 := s.GetOrCreateCart("", "sess_1")
	c2 := s.GetOrCreateCart("", "sess_1")
	require.Equal(t, c1.ID, c2.ID)
}

func TestAttachCartToUserMergesExistingUserCart(t *testing.T) {
	s := NewMemoryStore()
	sessCart := s.GetOrCreateCart("", "sess_1")
	sessCart.Items = append(sessCart.Items, CartItem{ItemID: "item_1", ProductID: "prod_001", Quantity: 1})
	s.SaveCart(sessCart)

	userCart := s.GetOrCreateCart("user_1", "")
	userCart.Items = append(userCart.Items, CartItem{ItemID: "item_2", ProductID: "prod_002", Quantity: 1})
	s.SaveCart(userCart)

	merged := s.AttachCartToUser("sess_1", "user_1")
	require.Len(t, merged.Items, 2)

	_, stillExists := s.carts[cartKey("", "sess_1")]
	require.False(t, stillExists)
}

func TestListAbandonedCartsExcludesConvertedAndEmpty(t *testing.T) {
	s := NewMemoryStore()
	cutoff := time.Now().Add(time.Hour)

	stale := s.GetOrCreateCart("user_stale", "")
	stale.Items = append(stale.Items, CartItem{ItemID: "item_1", ProductID: "prod_001", Quantity: 1})
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	s.SaveCart(stale)
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)

	converted := s.GetOrCreateCart("user_converted", "")
	converted.Items = append(converted.Items, CartItem{ItemID: "item_2", ProductID: "prod_001", Quantity: 1})
	converted.UpdatedAt = time.Now().Add(-2 * time.Hour)
	converted.Converted = true
	s.SaveCart(converted)

	empty := s.GetOrCreateCart("user_empty", "")
	empty.UpdatedAt = time.Now().Add(-2 * time.Hour)
	s.SaveCart(empty)

	abandoned := s.ListAbandonedCarts(cutoff)
	require.Len(t, abandoned, 1)
	require.Equal(t, stale.ID, abandoned[0].ID)
}

func TestIdempotencyCommitAndCheck(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.CheckIdempotency("cart:cart_1")
	require.False(t, ok)

	s.CommitIdempotency("cart:cart_1", "ord_000001")
	orderID, ok := s.CheckIdempotency("cart:cart_1")
	require.True(t, ok)
	require.Equal(t, "ord_000001", orderID)
}

func TestLatestOpenTicketReusesExistingTicket(t *testing.T) {
	s := NewMemoryStore()
	require.Nil(t, s.LatestOpenTicket("user_1", ""))

	t1 := &SupportTicket{ID: s.nextID("ticket"), UserID: "user_1", Status: "open", CreatedAt: time.Now()}
	s.CreateTicket(t1)

	found := s.LatestOpenTicket("user_1", "")
	require.NotNil(t, found)
	require.Equal(t, t1.ID, found.ID)
}
