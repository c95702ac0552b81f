package voice

import (
	"strconv"
	"time"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
	"github.com/nextlevelbuilder/goclaw/internal/store"
)

// recoveryKey mirrors voice_recovery_service.py's
// f"{cartId}::{cartUpdatedAt}" — it changes if the cart is touched
// again after a job already exists for it, so a shopper who comes back
// and re-abandons gets a fresh recovery attempt instead of being
// silently skipped by the old job's idempotency guard.
func recoveryKey(cartID string, updatedAt time.Time) string {
	return cartID + "::" + strconv.FormatInt(updatedAt.UnixNano(), 10)
}

// enqueueAbandonedCarts scans for carts idle past the abandonment
// window and enqueues one recovery job per cart, skipping carts that
// already converted to a newer order (the shopper finished checkout
// through another channel before the call would have gone out) or that
// already have a job queued under the current recoveryKey.
func (c *Controller) enqueueAbandonedCarts(settings *commerce.VoiceSettings) int {
	cutoff := time.Now().Add(-time.Duration(settings.AbandonmentMinutes) * time.Minute)
	carts := c.carts.ListAbandonedCarts(cutoff)

	enqueued := 0
	for _, cart := range carts {
		key := recoveryKey(cart.ID, cart.UpdatedAt)
		if _, exists := c.jobs.GetVoiceJobByRecoveryKey(key); exists {
			continue
		}
		if c.hasNewerOrder(cart) {
			continue
		}

		c.jobs.EnqueueVoiceJob(&commerce.VoiceJob{
			UserID:      cart.UserID,
			SessionID:   cart.SessionID,
			CartID:      cart.ID,
			RecoveryKey: key,
			Status:      commerce.VoiceJobQueued,
			NextRunAt:   time.Now(),
		})
		enqueued++
	}
	return enqueued
}

// hasNewerOrder reports whether the shopper already placed an order
// created after the cart was last updated — the signal that this cart
// was converted (or superseded) and no longer needs a recovery call.
func (c *Controller) hasNewerOrder(cart *store.Cart) bool {
	if cart.UserID == "" {
		return false
	}
	for _, o := range c.orders.ListOrdersForUser(cart.UserID) {
		if o.CreatedAt.After(cart.UpdatedAt) {
			return true
		}
	}
	return false
}
