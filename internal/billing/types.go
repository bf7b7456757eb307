package billing

// Category is the vendor-side product classification.
type Category string

const (
	// CategoryInApp is a one-time purchasable product.
	CategoryInApp Category = "inapp"
	// CategorySubs is a renewable subscription product.
	CategorySubs Category = "subs"
)

// ConnectionState tracks the lifecycle of the vendor connection.
// It is owned by the Manager and transitions only on vendor callbacks.
type ConnectionState int

const (
	// Uninitialized means StartConnection has never been issued.
	Uninitialized ConnectionState = iota
	// Connecting means the handshake is in flight.
	Connecting
	// Connected means the setup callback reported success.
	Connected
	// Disconnected means the service dropped the connection or setup failed.
	Disconnected
)

func (s ConnectionState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// VendorPurchaseState is the raw purchase state reported by the vendor.
type VendorPurchaseState int

const (
	VendorStateUnspecified VendorPurchaseState = 0
	VendorStatePurchased   VendorPurchaseState = 1
	VendorStatePending     VendorPurchaseState = 2
)

// PurchaseState is the platform-independent purchase state exposed to callers.
type PurchaseState int

const (
	PurchaseStatePending     PurchaseState = 0
	PurchaseStatePurchased   PurchaseState = 1
	PurchaseStateUnspecified PurchaseState = 2
)

// Purchase is a single vendor purchase record. Instances are created from
// purchase-update or query callbacks and held in the manager inventory until
// the next successful reconciliation replaces the inventory wholesale.
type Purchase struct {
	Token        string              `json:"purchaseToken"`
	ProductIDs   []string            `json:"productIds"`
	Acknowledged bool                `json:"acknowledged"`
	OrderID      string              `json:"orderId,omitempty"`
	PurchaseTime int64               `json:"purchaseTime"`
	PackageName  string              `json:"packageName"`
	State        VendorPurchaseState `json:"state"`
}

// Bundle formats the purchase the way the host layer expects it.
func (p Purchase) Bundle() map[string]interface{} {
	bundle := map[string]interface{}{
		"acknowledged":  p.Acknowledged,
		"purchaseState": int(NormalizePurchaseState(p.State)),
		"purchaseTime":  p.PurchaseTime,
		"packageName":   p.PackageName,
		"purchaseToken": p.Token,
	}
	if p.OrderID != "" {
		bundle["orderId"] = p.OrderID
	}
	if len(p.ProductIDs) > 0 {
		bundle["productId"] = p.ProductIDs[0]
	}
	return bundle
}

// SubscriptionOffer identifies one pricing variant of a subscription product.
type SubscriptionOffer struct {
	BasePlanID string `json:"basePlanId"`
	OfferToken string `json:"offerToken"`
}

// ProductDefinition is a purchasable item definition fetched from the vendor.
// Definitions overwrite the catalog entry for their productId on every
// successful query and never expire.
type ProductDefinition struct {
	ProductID          string              `json:"productId"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	FormattedPrice     string              `json:"price"`
	Category           Category            `json:"category"`
	SubscriptionOffers []SubscriptionOffer `json:"subscriptionOffers,omitempty"`
}

// Bundle formats the product definition for the host layer.
func (d ProductDefinition) Bundle() map[string]interface{} {
	return map[string]interface{}{
		"productId":   d.ProductID,
		"title":       d.Title,
		"description": d.Description,
		"price":       d.FormattedPrice,
	}
}

// AccountIdentifiers carries the obfuscated account linking pair. The vendor
// rejects flows that set only one of the two, so both are required together.
type AccountIdentifiers struct {
	ObfuscatedAccountID string `json:"obfuscatedAccountId"`
	ObfuscatedProfileID string `json:"obfuscatedProfileId"`
}

// PurchaseOptions are the optional purchase-flow arguments from the host.
type PurchaseOptions struct {
	OldPurchaseToken   string              `json:"oldPurchaseToken,omitempty"`
	AccountIdentifiers *AccountIdentifiers `json:"accountIdentifiers,omitempty"`
}

// FlowParams are the fully built parameters handed to the vendor when
// launching a purchase flow.
type FlowParams struct {
	ProductID           string
	OfferToken          string
	OldPurchaseToken    string
	ObfuscatedAccountID string
	ObfuscatedProfileID string
}

// PurchaseUpdate is an asynchronous purchase-update push from the vendor.
type PurchaseUpdate struct {
	Result    Result
	Purchases []Purchase
}
