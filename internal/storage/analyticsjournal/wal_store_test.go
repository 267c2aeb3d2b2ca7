package analyticsjournal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bondi/internal/analytics"
)

func TestWALStore_ReportAndRead(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Report(ctx, analytics.ApprovalSubmitted{Meta: analytics.NewMeta("dai")}))
	require.NoError(t, store.Report(ctx, analytics.BondSubmitted{
		Meta:      analytics.NewMeta("dai"),
		Quantity:  "10",
		Slippage:  "0.5",
		Recipient: "0x00000000000000000000000000000000000000aa",
	}))

	records, err := store.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, analytics.EventApprovalSubmitted, records[0].Event.Type())
	bond, ok := records[1].Event.(analytics.BondSubmitted)
	require.True(t, ok)
	assert.Equal(t, "10", bond.Quantity)
	assert.Equal(t, "dai", bond.Asset)

	after, err := store.EventsAfter(records[0].Index)
	require.NoError(t, err)
	require.Len(t, after, 1)

	none, err := store.EventsAfter(store.CurrentIndex())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWALStore_NotInitialized(t *testing.T) {
	var store *WALStore
	assert.Error(t, store.Report(context.Background(), analytics.ApprovalSubmitted{}))
	assert.Equal(t, uint64(0), store.CurrentIndex())
	_, err := store.EventsAfter(0)
	assert.Error(t, err)
}
