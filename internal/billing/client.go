package billing

import "context"

// Result carries the vendor response code and debug message for a single
// billing operation. A transport failure is reported through the error return
// of the operation, not through Result.
type Result struct {
	Code    VendorCode `json:"code"`
	Message string     `json:"message,omitempty"`
}

// OK reports whether the vendor accepted the operation.
func (r Result) OK() bool {
	return r.Code == VendorOK
}

// Feature is a vendor capability that can be probed synchronously.
type Feature string

// FeatureSubscriptions gates the renewable purchase category.
const FeatureSubscriptions Feature = "subscriptions"

// Client is the opaque billing service. Every operation delivers exactly one
// completion; unsolicited purchase updates and disconnects arrive on the
// channels after a successful StartConnection and until EndConnection.
type Client interface {
	// StartConnection performs the asynchronous setup handshake.
	StartConnection(ctx context.Context) (Result, error)

	// EndConnection tears the connection down. Safe to call when not ready.
	EndConnection() error

	// Ready reports whether the client holds a usable connection.
	Ready() bool

	// IsFeatureSupported probes a capability synchronously.
	IsFeatureSupported(feature Feature) Result

	// QueryProductDetails fetches product definitions for one category.
	QueryProductDetails(ctx context.Context, ids []string, category Category) (Result, []ProductDefinition, error)

	// QueryPurchases fetches the owned purchases of one category.
	QueryPurchases(ctx context.Context, category Category) (Result, []Purchase, error)

	// LaunchPurchaseFlow opens the vendor purchase UI. The purchase outcome
	// arrives later on PurchaseUpdates, not through this call.
	LaunchPurchaseFlow(ctx context.Context, params FlowParams) (Result, error)

	// Consume marks a one-time purchase as used, making it repurchasable.
	Consume(ctx context.Context, token string) (Result, error)

	// Acknowledge confirms receipt of a purchase without consuming it.
	Acknowledge(ctx context.Context, token string) (Result, error)

	// PurchaseUpdates streams unsolicited purchase-update pushes.
	PurchaseUpdates() <-chan PurchaseUpdate

	// Disconnects signals service-initiated connection loss.
	Disconnects() <-chan struct{}
}
