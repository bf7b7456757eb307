package billing

import (
	"context"

	"github.com/golang/glog"
)

// QueryProducts fetches product definitions for the given ids across both
// categories in parallel, overwrites the catalog entry for every returned
// product, and returns the bundled definitions wrapped in an envelope.
// Results are grouped by category: one-time products first, subscriptions
// appended after them. Stale catalog entries for ids no longer requested are
// left in place.
func (m *Manager) QueryProducts(ctx context.Context, ids []string) (Envelope, error) {
	type categoryDetails struct {
		result   Result
		products []ProductDefinition
		err      error
	}

	inAppCh := make(chan categoryDetails, 1)
	subsCh := make(chan categoryDetails, 1)

	go func() {
		result, products, err := m.client.QueryProductDetails(ctx, ids, CategoryInApp)
		inAppCh <- categoryDetails{result, products, err}
	}()
	go func() {
		result, products, err := m.client.QueryProductDetails(ctx, ids, CategorySubs)
		subsCh <- categoryDetails{result, products, err}
	}()

	inApp := <-inAppCh
	subs := <-subsCh
	if inApp.err != nil {
		return Envelope{}, inApp.err
	}
	if subs.err != nil {
		return Envelope{}, subs.err
	}

	definitions := append(inApp.products, subs.products...)

	m.mu.Lock()
	for _, d := range definitions {
		m.catalog[d.ProductID] = d
	}
	m.mu.Unlock()

	bundles := make([]interface{}, 0, len(definitions))
	for _, d := range definitions {
		bundles = append(bundles, d.Bundle())
	}

	glog.V(2).Infof("catalog refreshed: %d ids requested, %d definitions returned", len(ids), len(definitions))

	// The subscription query completes the pair, so its result stands for the
	// whole refresh.
	return FormatResponse(subs.result, bundles), nil
}

// CachedProduct returns the catalog entry for the given product id.
func (m *Manager) CachedProduct(productID string) (ProductDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.catalog[productID]
	return d, ok
}
