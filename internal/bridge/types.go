package bridge

import "iap/internal/billing"

// AccessTokenRequest is the signed token exchange sent to the bridge before
// any billing operation.
type AccessTokenRequest struct {
	AppKey    string `json:"app_key"`
	Timestamp int64  `json:"timestamp"`
	Token     string `json:"token"`
}

// AccessTokenResp is the bridge's token exchange response.
type AccessTokenResp struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

// ConnectResp is the response of the connection handshake.
type ConnectResp struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    struct {
		SessionID     string `json:"session_id"`
		BridgeVersion string `json:"bridge_version"`
	} `json:"data"`
}

// ResultResp wraps a bare vendor result.
type ResultResp struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func (r ResultResp) result() billing.Result {
	return billing.Result{Code: billing.VendorCode(r.Code), Message: r.Message}
}

// ProductsResp carries product definitions for one category query.
type ProductsResp struct {
	Code    int                         `json:"code"`
	Message string                      `json:"message,omitempty"`
	Data    []billing.ProductDefinition `json:"data"`
}

// PurchasesResp carries owned purchases for one category query.
type PurchasesResp struct {
	Code    int               `json:"code"`
	Message string            `json:"message,omitempty"`
	Data    []billing.Purchase `json:"data"`
}

// UpdateEvent is one entry of the update long poll.
type UpdateEvent struct {
	Type      string             `json:"type"`
	Code      int                `json:"code"`
	Message   string             `json:"message,omitempty"`
	Purchases []billing.Purchase `json:"purchases,omitempty"`
}

// UpdatesResp is the long-poll response.
type UpdatesResp struct {
	Code   int           `json:"code"`
	Events []UpdateEvent `json:"events"`
}

const (
	// UpdatePurchases signals a purchase-update push.
	UpdatePurchases = "purchasesUpdated"
	// UpdateDisconnected signals service-initiated connection loss.
	UpdateDisconnected = "disconnected"
)

// queryRequest is the body of category-scoped queries.
type queryRequest struct {
	SessionID string   `json:"session_id"`
	Category  string   `json:"category"`
	ItemList  []string `json:"item_list,omitempty"`
}

// flowRequest is the body of a purchase-flow launch.
type flowRequest struct {
	SessionID           string `json:"session_id"`
	ProductID           string `json:"product_id"`
	OfferToken          string `json:"offer_token,omitempty"`
	OldPurchaseToken    string `json:"old_purchase_token,omitempty"`
	ObfuscatedAccountID string `json:"obfuscated_account_id,omitempty"`
	ObfuscatedProfileID string `json:"obfuscated_profile_id,omitempty"`
}

// finalizeRequest is the body of consume/acknowledge calls.
type finalizeRequest struct {
	SessionID     string `json:"session_id"`
	PurchaseToken string `json:"purchase_token"`
}
