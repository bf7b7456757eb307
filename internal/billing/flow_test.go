package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func managerWithCatalog(t *testing.T, client *fakeClient, products ...ProductDefinition) *Manager {
	t.Helper()
	client.productQueries[CategoryInApp] = categoryScript{result: Result{Code: VendorOK}, products: products}
	client.productQueries[CategorySubs] = categoryScript{result: Result{Code: VendorOK}}
	m := connectedManager(t, client, nil)
	_, err := m.QueryProducts(context.Background(), nil)
	require.NoError(t, err)
	return m
}

func TestPurchaseItemRequiresCatalogEntry(t *testing.T) {
	client := newFakeClient()
	m := connectedManager(t, client, nil)

	err := m.PurchaseItem(context.Background(), "never.queried", PurchaseOptions{})
	require.ErrorIs(t, err, ErrItemNotQueried)
	assert.Empty(t, client.launchedFlows())
}

func TestPurchaseItemLaunchesFlow(t *testing.T) {
	client := newFakeClient()
	m := managerWithCatalog(t, client, ProductDefinition{ProductID: "gold.pack", Category: CategoryInApp})

	require.NoError(t, m.PurchaseItem(context.Background(), "gold.pack", PurchaseOptions{}))

	flows := client.launchedFlows()
	require.Len(t, flows, 1)
	assert.Equal(t, "gold.pack", flows[0].ProductID)
	assert.Empty(t, flows[0].OfferToken)
}

func TestPurchaseItemAttachesFirstOfferToken(t *testing.T) {
	client := newFakeClient()
	m := managerWithCatalog(t, client, ProductDefinition{
		ProductID: "premium.monthly",
		Category:  CategorySubs,
		SubscriptionOffers: []SubscriptionOffer{
			{BasePlanID: "monthly", OfferToken: "offer-1"},
			{BasePlanID: "monthly-trial", OfferToken: "offer-2"},
		},
	})

	require.NoError(t, m.PurchaseItem(context.Background(), "premium.monthly", PurchaseOptions{}))

	flows := client.launchedFlows()
	require.Len(t, flows, 1)
	assert.Equal(t, "offer-1", flows[0].OfferToken)
}

func TestPurchaseItemReplacementToken(t *testing.T) {
	client := newFakeClient()
	m := managerWithCatalog(t, client, ProductDefinition{ProductID: "premium.yearly", Category: CategorySubs})

	opts := PurchaseOptions{OldPurchaseToken: "tok-old"}
	require.NoError(t, m.PurchaseItem(context.Background(), "premium.yearly", opts))

	flows := client.launchedFlows()
	require.Len(t, flows, 1)
	assert.Equal(t, "tok-old", flows[0].OldPurchaseToken)
}

func TestPurchaseItemAccountIdentifiersBothOrNeither(t *testing.T) {
	client := newFakeClient()
	m := managerWithCatalog(t, client, ProductDefinition{ProductID: "gold.pack", Category: CategoryInApp})

	// A complete pair is forwarded.
	opts := PurchaseOptions{AccountIdentifiers: &AccountIdentifiers{
		ObfuscatedAccountID: "acct",
		ObfuscatedProfileID: "prof",
	}}
	require.NoError(t, m.PurchaseItem(context.Background(), "gold.pack", opts))

	// An incomplete pair is dropped entirely.
	opts = PurchaseOptions{AccountIdentifiers: &AccountIdentifiers{ObfuscatedAccountID: "acct"}}
	require.NoError(t, m.PurchaseItem(context.Background(), "gold.pack", opts))

	flows := client.launchedFlows()
	require.Len(t, flows, 2)
	assert.Equal(t, "acct", flows[0].ObfuscatedAccountID)
	assert.Equal(t, "prof", flows[0].ObfuscatedProfileID)
	assert.Empty(t, flows[1].ObfuscatedAccountID)
	assert.Empty(t, flows[1].ObfuscatedProfileID)
}
