package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

func newTestController(t *testing.T) (*Controller, *store.MemoryStore, *Store) {
	t.Helper()
	memStore := store.NewMemoryStore()
	voiceStore := NewStore(&commerce.VoiceSettings{
		Enabled:             true,
		AbandonmentMinutes:  30,
		MaxAttemptsPerCart:  3,
		RetryBackoffSeconds: []int{60, 300, 900},
		ScriptTemplate:      "Hi {{.Name}}, you left {{.ItemCount}} item(s) worth ${{.CartTotal}} in your cart.",
		DefaultTimezone:     "UTC",
	})
	c := New(Dependencies{
		Carts:         memStore,
		Orders:        memStore,
		Users:         memStore,
		Support:       memStore,
		Jobs:          voiceStore,
		Calls:         voiceStore,
		Suppressions:  voiceStore,
		Alerts:        voiceStore,
		SettingsStore: voiceStore,
		Provider:      nil,
	})
	return c, memStore, voiceStore
}

func abandonedCart(t *testing.T, s *store.MemoryStore, userID string) *store.Cart {
	t.Helper()
	cart := s.GetOrCreateCart(userID, "")
	cart.Items = append(cart.Items, store.CartItem{ItemID: "item_1", ProductID: "prod_1", Quantity: 1})
	cart.UpdatedAt = time.Now().Add(-time.Hour)
	s.SaveCart(cart)
	cart.UpdatedAt = time.Now().Add(-time.Hour)
	return cart
}

func TestEnqueueAbandonedCartsSkipsAlreadyQueued(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	cart := abandonedCart(t, memStore, "user_1")
	settings := voiceStore.GetVoiceSettings()

	first := c.enqueueAbandonedCarts(settings)
	require.Equal(t, 1, first)

	second := c.enqueueAbandonedCarts(settings)
	require.Equal(t, 0, second)

	key := recoveryKey(cart.ID, cart.UpdatedAt)
	_, exists := voiceStore.GetVoiceJobByRecoveryKey(key)
	require.True(t, exists)
}

func TestEnqueueAbandonedCartsSkipsConvertedOrders(t *testing.T) {
	c, memStore, voiceStore := newTestController(t)
	cart := abandonedCart(t, memStore, "user_1")

	memStore.CommitOrder(&store.Order{ID: "ord_1", UserID: "user_1", CreatedAt: time.Now()})

	settings := voiceStore.GetVoiceSettings()
	enqueued := c.enqueueAbandonedCarts(settings)
	require.Equal(t, 0, enqueued)

	key := recoveryKey(cart.ID, cart.UpdatedAt)
	_, exists := voiceStore.GetVoiceJobByRecoveryKey(key)
	require.False(t, exists)
}

func TestRecoveryKeyChangesWithUpdatedAt(t *testing.T) {
	t1 := time.Now()
	t2 := t1.Add(time.Minute)
	require.NotEqual(t, recoveryKey("cart_1", t1), recoveryKey("cart_1", t2))
}
