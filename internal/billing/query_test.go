package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedManager(t *testing.T, client *fakeClient, sink EventSink) *Manager {
	t.Helper()
	m := NewManager(client, sink)
	t.Cleanup(func() { m.Destroy() })
	require.NoError(t, m.Connect(context.Background()))
	return m
}

func TestQueryPurchasesCombinesCategories(t *testing.T) {
	client := newFakeClient()
	client.purchaseQueries[CategoryInApp] = categoryScript{
		result:    Result{Code: VendorOK},
		purchases: []Purchase{{Token: "tok-inapp", ProductIDs: []string{"gold.pack"}}},
	}
	client.purchaseQueries[CategorySubs] = categoryScript{
		result:    Result{Code: VendorOK},
		purchases: []Purchase{{Token: "tok-subs", ProductIDs: []string{"premium.monthly"}}},
	}
	sink := &recordingSink{}
	m := connectedManager(t, client, sink)

	env, err := m.QueryPurchases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ResponseOK, env.ResponseCode)
	assert.Len(t, env.Payload, 2)
	assert.Len(t, m.Purchases(), 2)
	assert.ElementsMatch(t, []Category{CategoryInApp, CategorySubs}, client.queriedCategories())

	// Observers see the same reconciled inventory.
	envs := sink.all()
	require.Len(t, envs, 1)
	assert.Len(t, envs[0].Payload, 2)
}

func TestQueryPurchasesSkipsSubsWhenUnsupported(t *testing.T) {
	client := newFakeClient()
	client.subsSupported = Result{Code: VendorFeatureNotSupported}
	client.purchaseQueries[CategoryInApp] = categoryScript{
		result:    Result{Code: VendorOK},
		purchases: []Purchase{{Token: "tok-inapp"}},
	}
	m := connectedManager(t, client, nil)

	env, err := m.QueryPurchases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ResponseOK, env.ResponseCode)
	assert.Equal(t, []Category{CategoryInApp}, client.queriedCategories())
	assert.Len(t, m.Purchases(), 1)
}

func TestQueryPurchasesFailureLeavesInventory(t *testing.T) {
	// Seed the inventory through a successful reconciliation first.
	client := newFakeClient()
	client.purchaseQueries[CategoryInApp] = categoryScript{
		result:    Result{Code: VendorOK},
		purchases: []Purchase{{Token: "tok-old"}},
	}
	client.purchaseQueries[CategorySubs] = categoryScript{result: Result{Code: VendorOK}}
	m := connectedManager(t, client, nil)

	_, err := m.QueryPurchases(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Purchases(), 1)

	client.mu.Lock()
	client.purchaseQueries[CategorySubs] = categoryScript{result: Result{Code: VendorNetworkError}}
	client.mu.Unlock()

	_, err = m.QueryPurchases(context.Background())
	require.ErrorIs(t, err, ErrQueryFailed)
	// The last good inventory stays in place on a failed reconciliation.
	assert.Len(t, m.Purchases(), 1)
	assert.Equal(t, "tok-old", m.Purchases()[0].Token)
}

func TestQueryPurchasesTransportError(t *testing.T) {
	client := newFakeClient()
	client.purchaseQueries[CategoryInApp] = categoryScript{err: errors.New("connection reset")}
	client.purchaseQueries[CategorySubs] = categoryScript{result: Result{Code: VendorOK}}
	m := connectedManager(t, client, nil)

	_, err := m.QueryPurchases(context.Background())
	require.ErrorIs(t, err, ErrQueryFailed)
	assert.Empty(t, m.Purchases())
}

func TestQueryPurchasesCompletionOrderIrrelevant(t *testing.T) {
	// Stall the one-time category until the subscription category has
	// delivered, forcing the join to observe completions out of issue order.
	release := make(chan struct{})
	started := make(chan struct{})
	client := newFakeClient()
	client.purchaseQueries[CategoryInApp] = categoryScript{
		result:    Result{Code: VendorOK},
		purchases: []Purchase{{Token: "tok-inapp"}},
		started:   started,
		release:   release,
	}
	client.purchaseQueries[CategorySubs] = categoryScript{
		result:    Result{Code: VendorOK},
		purchases: []Purchase{{Token: "tok-subs"}},
	}
	m := connectedManager(t, client, nil)

	done := make(chan Envelope, 1)
	go func() {
		env, err := m.QueryPurchases(context.Background())
		if err == nil {
			done <- env
		}
		close(done)
	}()

	<-started
	time.Sleep(10 * time.Millisecond)
	close(release)

	select {
	case env, ok := <-done:
		require.True(t, ok, "query failed")
		assert.Equal(t, ResponseOK, env.ResponseCode)
		assert.Len(t, env.Payload, 2)
	case <-time.After(time.Second):
		t.Fatal("query did not complete")
	}
}

func TestAggregateResults(t *testing.T) {
	ok := Result{Code: VendorOK}
	network := Result{Code: VendorNetworkError}

	assert.Equal(t, ok, aggregateResults([]Result{ok, ok}))
	assert.Equal(t, network, aggregateResults([]Result{ok, network}))
	assert.Equal(t, network, aggregateResults([]Result{network, ok}))
	assert.False(t, aggregateResults(nil).OK())
}
