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
	"fmt"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"iap/internal/billing"
)

const (
	APIRootPath = "/iap"
	Version     = "v1"
)

var (
	ModuleTags = []string{"iap"}
)

func newWebService() *restful.WebService {
	webservice := restful.WebService{}

	webservice.Path(fmt.Sprintf("%s/%s", APIRootPath, Version)).
		Produces(restful.MIME_JSON)

	return &webservice
}

func AddToContainer(c *restful.Container, sink billing.EventSink) error {
	ws := newWebService()
	handler := newHandler(sink)

	ws.Route(ws.POST("/connect").
		To(handler.connect).
		Doc("establish the billing service connection").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Returns(http.StatusOK, "success to connect to the billing service", &Response{}))

	ws.Route(ws.POST("/disconnect").
		To(handler.disconnect).
		Doc("tear the billing service connection down").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Returns(http.StatusOK, "success to disconnect from the billing service", &Response{}))

	ws.Route(ws.POST("/products/query").
		To(handler.getProducts).
		Doc("query purchasable item definitions").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Reads(ProductsQueryRequest{}).
		Returns(http.StatusOK, "success to query purchasable items", &billing.Envelope{}))

	ws.Route(ws.POST("/purchases/query").
		To(handler.getPurchaseHistory).
		Doc("query owned purchases across categories").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Reads(PurchasesQueryRequest{}).
		Returns(http.StatusOK, "success to query purchases", &billing.Envelope{}))

	ws.Route(ws.POST("/purchase").
		To(handler.purchaseItem).
		Doc("launch a purchase or subscription replace flow").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Reads(PurchaseRequest{}).
		Returns(http.StatusOK, "purchase flow launched", &Response{}))

	ws.Route(ws.POST("/transactions/finish").
		To(handler.finishTransaction).
		Doc("consume or acknowledge a purchase").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Reads(FinishTransactionRequest{}).
		Returns(http.StatusOK, "transaction finished", &billing.Envelope{}))

	ws.Route(ws.GET("/responsecode").
		To(handler.getResponseCode).
		Doc("get the last billing setup response code").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Returns(http.StatusOK, "success to get the response code", &Response{}))

	c.Add(ws)

	return nil
}
