// Copyright 2022 bytetrade
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"runtime"

	"github.com/emicklei/go-restful/v3"
	"github.com/golang/glog"

	"iap/internal/billing"
	"iap/internal/constants"
	"iap/pkg/utils"
)

const (
	OK                  = 200
	InternalServerError = 500

	Success = "success"
)

// Error is the rejected outcome delivered to the host: a stable short code
// plus a human-readable message. The host matches on Code, never on Message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return utils.PrettyJSON(e)
}

func NewError(code, message string) Error {
	return Error{Code: code, Message: message}
}

// FromError maps an orchestration failure onto its caller-facing rejection
// code and HTTP status. Failures outside the stable code set surface as a
// bare internal error.
func FromError(err error) (int, Error) {
	switch {
	case errors.Is(err, billing.ErrItemNotQueried):
		return http.StatusBadRequest, NewError(constants.ErrItemNotQueried, "Must query item from store before calling purchase")
	case errors.Is(err, billing.ErrUnfinishedOperation):
		return http.StatusConflict, NewError(constants.ErrUnfinishedPromise, "Must wait for promise to resolve before recalling function.")
	case errors.Is(err, billing.ErrQueryFailed):
		return http.StatusBadGateway, NewError(constants.ErrQueryFailed, "Billing client was null or query was unsuccessful")
	case errors.Is(err, billing.ErrNotInitialized), errors.Is(err, billing.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, NewError(constants.ErrActivityUnavailable, "Billing session is not available")
	}
	return http.StatusInternalServerError, NewError("internal_server_error", err.Error())
}

// HandleReject writes a rejected outcome for the given failure.
func HandleReject(resp *restful.Response, err error) {
	_, fn, line, _ := runtime.Caller(1)
	glog.Errorf("%s:%d %v", fn, line, err)

	statusCode, rejection := FromError(err)
	_ = resp.WriteHeaderAndEntity(statusCode, rejection)
}

// HandleInternalError writes a bare internal error.
func HandleInternalError(resp *restful.Response, err error) {
	glog.Errorf("internal error: %v", err)
	_ = resp.WriteHeaderAndEntity(http.StatusInternalServerError,
		NewError("internal_server_error", http.StatusText(http.StatusInternalServerError)))
}
