package billing

import "encoding/json"

// VendorCode is a raw response code from the billing service.
type VendorCode int

const (
	VendorFeatureNotSupported VendorCode = -2
	VendorServiceDisconnected VendorCode = -1
	VendorOK                  VendorCode = 0
	VendorUserCanceled        VendorCode = 1
	VendorServiceUnavailable  VendorCode = 2
	VendorBillingUnavailable  VendorCode = 3
	VendorItemUnavailable     VendorCode = 4
	VendorDeveloperError      VendorCode = 5
	VendorError               VendorCode = 6
	VendorItemAlreadyOwned    VendorCode = 7
	VendorItemNotOwned        VendorCode = 8
	VendorNetworkError        VendorCode = 12
)

// ResponseCode is the stable platform-independent outcome every vendor
// response collapses into at the host boundary.
type ResponseCode int

const (
	ResponseOK           ResponseCode = 0
	ResponseUserCanceled ResponseCode = 1
	ResponseError        ResponseCode = 2
)

// ErrorSubCode refines ResponseError with a stable error classification.
type ErrorSubCode int

const (
	ErrorCodeError               ErrorSubCode = 0
	ErrorCodeFeatureNotSupported ErrorSubCode = 1
	ErrorCodeServiceDisconnected ErrorSubCode = 2
	ErrorCodeServiceUnavailable  ErrorSubCode = 3
	ErrorCodeNetworkError        ErrorSubCode = 4
	ErrorCodeBillingUnavailable  ErrorSubCode = 5
	ErrorCodeItemUnavailable     ErrorSubCode = 6
	ErrorCodeDeveloperError      ErrorSubCode = 7
	ErrorCodeItemAlreadyOwned    ErrorSubCode = 8
	ErrorCodeItemNotOwned        ErrorSubCode = 9
)

// Normalize collapses a vendor response code into the stable three-value
// outcome. Total over the input domain; unmapped codes are errors.
func Normalize(code VendorCode) ResponseCode {
	switch code {
	case VendorOK:
		return ResponseOK
	case VendorUserCanceled:
		return ResponseUserCanceled
	}
	return ResponseError
}

// NormalizeError maps a vendor response code to its stable error sub-code.
// Unmapped codes fall back to the generic ErrorCodeError.
func NormalizeError(code VendorCode) ErrorSubCode {
	switch code {
	case VendorError:
		return ErrorCodeError
	case VendorFeatureNotSupported:
		return ErrorCodeFeatureNotSupported
	case VendorServiceDisconnected:
		return ErrorCodeServiceDisconnected
	case VendorServiceUnavailable:
		return ErrorCodeServiceUnavailable
	case VendorNetworkError:
		return ErrorCodeNetworkError
	case VendorBillingUnavailable:
		return ErrorCodeBillingUnavailable
	case VendorItemUnavailable:
		return ErrorCodeItemUnavailable
	case VendorDeveloperError:
		return ErrorCodeDeveloperError
	case VendorItemAlreadyOwned:
		return ErrorCodeItemAlreadyOwned
	case VendorItemNotOwned:
		return ErrorCodeItemNotOwned
	}
	return ErrorCodeError
}

// NormalizePurchaseState maps a vendor purchase state to the stable
// enumeration. Unmapped values count as pending.
func NormalizePurchaseState(state VendorPurchaseState) PurchaseState {
	switch state {
	case VendorStatePending:
		return PurchaseStatePending
	case VendorStatePurchased:
		return PurchaseStatePurchased
	case VendorStateUnspecified:
		return PurchaseStateUnspecified
	}
	return PurchaseStatePending
}

// Envelope is the uniform response shape delivered to the host. The payload
// is present only for OK outcomes (an empty list when nothing was supplied)
// and the error code only for error outcomes.
type Envelope struct {
	ResponseCode ResponseCode
	Payload      []interface{}
	ErrorCode    *ErrorSubCode
}

// MarshalJSON keeps field presence exactly as the host expects: no payload
// field on canceled/error outcomes, no errorCode field unless errored.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"responseCode": int(e.ResponseCode),
	}
	if e.ResponseCode == ResponseOK {
		payload := e.Payload
		if payload == nil {
			payload = []interface{}{}
		}
		out["payload"] = payload
	}
	if e.ResponseCode == ResponseError && e.ErrorCode != nil {
		out["errorCode"] = int(*e.ErrorCode)
	}
	return json.Marshal(out)
}

// FormatResponse converts a vendor result and an optional payload list into
// the uniform response envelope. Pure function, no side effects.
func FormatResponse(result Result, payload []interface{}) Envelope {
	switch Normalize(result.Code) {
	case ResponseOK:
		if payload == nil {
			payload = []interface{}{}
		}
		return Envelope{ResponseCode: ResponseOK, Payload: payload}
	case ResponseUserCanceled:
		return Envelope{ResponseCode: ResponseUserCanceled}
	}
	sub := NormalizeError(result.Code)
	return Envelope{ResponseCode: ResponseError, ErrorCode: &sub}
}
