package v1

import "iap/internal/billing"

// Response is the generic resolution wrapper for operations that do not
// return a billing envelope.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"message,omitempty"`
	Data any    `json:"data,omitempty"`
}

func NewResponse(code int, msg string, data any) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
		Data: data,
	}
}

// ProductsQueryRequest asks for a catalog refresh of the listed item ids.
type ProductsQueryRequest struct {
	ItemList []string `json:"itemList"`
}

// PurchasesQueryRequest carries the purchase history options. Only the
// vendor-cache-backed query path exists; the flag defaults to true and a
// false value is answered the same way.
type PurchasesQueryRequest struct {
	UseGooglePlayCache *bool `json:"useGooglePlayCache,omitempty"`
}

// PurchaseRequest launches a purchase flow for a previously queried item.
type PurchaseRequest struct {
	ProductID string                   `json:"productId"`
	Details   *billing.PurchaseOptions `json:"details,omitempty"`
}

// FinishTransactionRequest finalizes a purchase by token.
type FinishTransactionRequest struct {
	PurchaseToken string `json:"purchaseToken"`
	Consume       bool   `json:"consume"`
}

// ResponseCodeData wraps the last recorded vendor setup code.
type ResponseCodeData struct {
	ResponseCode int `json:"responseCode"`
}
