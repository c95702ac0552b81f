package admin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

func TestAppendChainsEntries(t *testing.T) {
	c := New("secret")
	e1 := c.Append(&commerce.AdminActivityLog{Action: "refund_override", Resource: "order", ResourceID: "ord_1"})
	e2 := c.Append(&commerce.AdminActivityLog{Action: "suppression_lift", Resource: "voice_suppression", ResourceID: "user_1"})

	require.Empty(t, e1.PrevHash)
	require.NotEmpty(t, e1.EntryHash)
	require.Equal(t, e1.EntryHash, e2.PrevHash)
	require.NotEqual(t, e1.EntryHash, e2.EntryHash)
}

func TestListActivityNewestFirstAndBounded(t *testing.T) {
	c := New("secret")
	for i := 0; i < 5; i++ {
		c.Append(&commerce.AdminActivityLog{Action: "noop", ResourceID: string(rune('a' + i))})
	}
	out := c.ListActivity(2)
	require.Len(t, out, 2)
	require.Equal(t, "e", out[0].ResourceID)
	require.Equal(t, "d", out[1].ResourceID)
}

func TestVerifyIntegrityCleanChain(t *testing.T) {
	c := New("secret")
	for i := 0; i < 3; i++ {
		c.Append(&commerce.AdminActivityLog{Action: "noop"})
	}
	report := c.VerifyIntegrity()
	require.True(t, report.Valid())
	require.Equal(t, 3, report.Checked)
}

func TestVerifyIntegrityDetectsTampering(t *testing.T) {
	c := New("secret")
	c.Append(&commerce.AdminActivityLog{Action: "noop"})
	c.Append(&commerce.AdminActivityLog{Action: "noop"})

	c.entries[0].Action = "tampered"

	report := c.VerifyIntegrity()
	require.False(t, report.Valid())
	require.NotEmpty(t, report.Issues)
}

func TestLatestActivityEmptyChain(t *testing.T) {
	c := New("secret")
	_, ok := c.LatestActivity()
	require.False(t, ok)
}
