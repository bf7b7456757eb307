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

package v1

import (
	"sync"

	"github.com/emicklei/go-restful/v3"
	"github.com/golang/glog"
	"github.com/thoas/go-funk"

	"iap/internal/billing"
	"iap/internal/bridge"
	"iap/pkg/api"
)

type Handler struct {
	sink billing.EventSink

	// newClient is swapped out in tests.
	newClient func() (billing.Client, error)

	mu      sync.Mutex
	manager *billing.Manager
}

func newHandler(sink billing.EventSink) *Handler {
	return &Handler{
		sink: sink,
		newClient: func() (billing.Client, error) {
			return bridge.NewClient()
		},
	}
}

func (h *Handler) getManager() *billing.Manager {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.manager
}

// connect establishes a fresh billing session. An existing session is torn
// down first, matching the host's connect-replaces-session expectation.
func (h *Handler) connect(req *restful.Request, resp *restful.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.manager != nil {
		_ = h.manager.Destroy()
		h.manager = nil
	}

	client, err := h.newClient()
	if err != nil {
		glog.Warningf("billing client unavailable:%s", err.Error())
		api.HandleReject(resp, billing.ErrNotInitialized)
		return
	}

	manager := billing.NewManager(client, h.sink)
	if err := manager.Connect(req.Request.Context()); err != nil {
		// Setup failed: resolve the normalized failure envelope so the host
		// can inspect the recorded vendor code.
		env := billing.FormatResponse(billing.Result{Code: manager.ResponseCode()}, nil)
		_ = manager.Destroy()
		_ = resp.WriteEntity(env)
		return
	}

	h.manager = manager
	_ = resp.WriteEntity(NewResponse(api.OK, api.Success, nil))
}

// disconnect tears the session down. Resolves success even without one.
func (h *Handler) disconnect(req *restful.Request, resp *restful.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.manager != nil {
		if err := h.manager.Destroy(); err != nil {
			glog.Warningf("destroy billing manager err:%s", err.Error())
		}
		h.manager = nil
	}
	_ = resp.WriteEntity(NewResponse(api.OK, api.Success, nil))
}

func (h *Handler) getProducts(req *restful.Request, resp *restful.Response) {
	manager := h.getManager()
	if manager == nil {
		api.HandleReject(resp, billing.ErrNotInitialized)
		return
	}

	var in ProductsQueryRequest
	if err := req.ReadEntity(&in); err != nil {
		api.HandleInternalError(resp, err)
		return
	}

	env, err := manager.QueryProducts(req.Request.Context(), funk.UniqString(in.ItemList))
	if err != nil {
		api.HandleReject(resp, err)
		return
	}
	_ = resp.WriteEntity(env)
}

func (h *Handler) getPurchaseHistory(req *restful.Request, resp *restful.Response) {
	manager := h.getManager()
	if manager == nil {
		api.HandleReject(resp, billing.ErrNotInitialized)
		return
	}

	// The options body is optional; the only implemented history source is
	// the vendor cache, whatever useGooglePlayCache says.
	var in PurchasesQueryRequest
	_ = req.ReadEntity(&in)

	env, err := manager.QueryPurchases(req.Request.Context())
	if err != nil {
		api.HandleReject(resp, err)
		return
	}
	_ = resp.WriteEntity(env)
}

func (h *Handler) purchaseItem(req *restful.Request, resp *restful.Response) {
	manager := h.getManager()
	if manager == nil {
		api.HandleReject(resp, billing.ErrNotInitialized)
		return
	}

	var in PurchaseRequest
	if err := req.ReadEntity(&in); err != nil {
		api.HandleInternalError(resp, err)
		return
	}

	options := billing.PurchaseOptions{}
	if in.Details != nil {
		options = *in.Details
	}

	if err := manager.PurchaseItem(req.Request.Context(), in.ProductID, options); err != nil {
		api.HandleReject(resp, err)
		return
	}

	// The purchase outcome arrives later on the purchases-updated channel.
	_ = resp.WriteEntity(NewResponse(api.OK, api.Success, nil))
}

func (h *Handler) finishTransaction(req *restful.Request, resp *restful.Response) {
	manager := h.getManager()
	if manager == nil {
		api.HandleReject(resp, billing.ErrNotInitialized)
		return
	}

	var in FinishTransactionRequest
	if err := req.ReadEntity(&in); err != nil {
		api.HandleInternalError(resp, err)
		return
	}

	env, err := manager.FinishTransaction(req.Request.Context(), in.PurchaseToken, in.Consume)
	if err != nil {
		api.HandleReject(resp, err)
		return
	}
	_ = resp.WriteEntity(env)
}

func (h *Handler) getResponseCode(req *restful.Request, resp *restful.Response) {
	code := int(billing.ClientNotInitialized)
	if manager := h.getManager(); manager != nil {
		code = int(manager.ResponseCode())
	}
	_ = resp.WriteEntity(NewResponse(api.OK, api.Success, ResponseCodeData{ResponseCode: code}))
}
