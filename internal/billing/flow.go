package billing

import (
	"context"

	"github.com/golang/glog"
)

// PurchaseItem validates the product against the catalog, builds the purchase
// flow parameters and launches the vendor purchase UI. The purchase outcome is
// not returned here; it arrives later through the purchase-update channel and
// the inventory-replacement path.
func (m *Manager) PurchaseItem(ctx context.Context, productID string, options PurchaseOptions) error {
	product, ok := m.CachedProduct(productID)
	if !ok {
		return ErrItemNotQueried
	}

	params := FlowParams{ProductID: productID}

	if len(product.SubscriptionOffers) > 0 {
		params.OfferToken = product.SubscriptionOffers[0].OfferToken
	}

	if options.OldPurchaseToken != "" {
		params.OldPurchaseToken = options.OldPurchaseToken
	}

	// The vendor rejects flows carrying only one of the two identifiers, so
	// an incomplete pair is dropped rather than forwarded.
	if ids := options.AccountIdentifiers; ids != nil {
		if ids.ObfuscatedAccountID != "" && ids.ObfuscatedProfileID != "" {
			params.ObfuscatedAccountID = ids.ObfuscatedAccountID
			params.ObfuscatedProfileID = ids.ObfuscatedProfileID
		}
	}

	if err := m.ensureConnected(ctx); err != nil {
		return err
	}

	result, err := m.client.LaunchPurchaseFlow(ctx, params)
	if err != nil {
		return err
	}
	glog.Infof("purchase flow launched for %s, code=%d", productID, result.Code)
	return nil
}
