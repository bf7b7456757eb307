package billing

import (
	"context"

	"github.com/golang/glog"
)

// categoryOutcome is one category's completion in the purchase query join.
type categoryOutcome struct {
	category  Category
	result    Result
	purchases []Purchase
	err       error
}

// QueryPurchases reconciles the purchase inventory. It queries the one-time
// category unconditionally and the subscription category only when the
// feature probe reports support, joins the per-category completions in
// whichever order they arrive, and aggregates them into a single result.
// On an aggregated OK the inventory is replaced wholesale with the combined
// list and observers are notified with the full new inventory; otherwise the
// inventory is left untouched and ErrQueryFailed is returned.
func (m *Manager) QueryPurchases(ctx context.Context) (Envelope, error) {
	if err := m.ensureConnected(ctx); err != nil {
		return Envelope{}, ErrQueryFailed
	}

	// The required set is fixed before issuing: the join below must see
	// exactly one completion per required category, in any interleaving.
	categories := []Category{CategoryInApp}
	if m.SubscriptionsSupported() {
		categories = append(categories, CategorySubs)
	}

	outcomes := make(chan categoryOutcome, len(categories))
	for _, category := range categories {
		go func(c Category) {
			result, purchases, err := m.client.QueryPurchases(ctx, c)
			outcomes <- categoryOutcome{category: c, result: result, purchases: purchases, err: err}
		}(category)
	}

	var combined []Purchase
	var results []Result
	var transportErr error
	for range categories {
		outcome := <-outcomes
		if outcome.err != nil {
			glog.Warningf("purchase query for category %s failed: %v", outcome.category, outcome.err)
			transportErr = outcome.err
			continue
		}
		if outcome.result.OK() {
			combined = append(combined, outcome.purchases...)
		}
		results = append(results, outcome.result)
	}

	aggregated := aggregateResults(results)
	if transportErr != nil || !aggregated.OK() {
		return Envelope{}, ErrQueryFailed
	}

	m.mu.Lock()
	m.purchases = combined
	inventory := make([]Purchase, len(m.purchases))
	copy(inventory, m.purchases)
	m.mu.Unlock()

	m.notifyPurchasesUpdated(aggregated, inventory)

	bundles := make([]interface{}, 0, len(inventory))
	for _, p := range inventory {
		bundles = append(bundles, p.Bundle())
	}
	return FormatResponse(aggregated, bundles), nil
}

// aggregateResults scans the recorded category results in reporting order and
// returns the first non-OK one; when every category reported OK any one of
// them stands for the aggregate.
func aggregateResults(results []Result) Result {
	if len(results) == 0 {
		return Result{Code: VendorError, Message: "no category reported a result"}
	}
	for _, r := range results {
		if !r.OK() {
			return r
		}
	}
	return results[0]
}
