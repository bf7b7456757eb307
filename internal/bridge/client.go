// Copyright 2023 bytetrade
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

package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/go-resty/resty/v2"
	"github.com/golang/glog"
	"golang.org/x/crypto/bcrypt"

	"iap/internal/billing"
)

var (
	appKey       = ""
	appSecret    = ""
	bridgeServer = ""
)

func init() {
	appKey = os.Getenv("OS_APP_KEY")
	appSecret = os.Getenv("OS_APP_SECRET")
	bridgeServer = os.Getenv("IAP_BRIDGE_SERVER")
}

const (
	APIVersion        = "v1"
	AccessTokenHeader = "X-Access-Token"

	pollRetryWait = 2 * time.Second
)

// Client talks to the platform billing bridge over HTTP and implements
// billing.Client. One Client carries at most one bridge session.
type Client struct {
	httpClient *resty.Client

	mu        sync.RWMutex
	ready     bool
	sessionID string
	pollStop  chan struct{}

	updates     chan billing.PurchaseUpdate
	disconnects chan struct{}
}

// NewClient builds a bridge client from the environment. It fails when no
// bridge endpoint is configured, so the caller can surface session
// unavailability before attempting a handshake.
func NewClient() (*Client, error) {
	if bridgeServer == "" {
		return nil, errors.New("billing bridge server is not configured")
	}

	c := resty.New()

	return &Client{
		httpClient:  c.SetTimeout(10 * time.Second),
		updates:     make(chan billing.PurchaseUpdate, 8),
		disconnects: make(chan struct{}, 1),
	}, nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s/iap-bridge/%s/%s", bridgeServer, APIVersion, path)
}

func (c *Client) getAccessToken() (string, error) {
	now := time.Now().UnixMilli() / 1000

	password := appKey + strconv.Itoa(int(now)) + appSecret
	encode, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.R().
		SetHeader(restful.HEADER_ContentType, restful.MIME_JSON).
		SetBody(AccessTokenRequest{
			AppKey:    appKey,
			Timestamp: now,
			Token:     string(encode),
		}).
		SetResult(&AccessTokenResp{}).
		Post(c.url("access"))

	if err != nil {
		return "", err
	}

	if resp.StatusCode() != http.StatusOK {
		return "", errors.New(string(resp.Body()))
	}

	token := resp.Result().(*AccessTokenResp)
	if token.Code != 0 {
		return "", errors.New(token.Message)
	}

	return token.Data.AccessToken, nil
}

// StartConnection performs the bridge handshake. A bridge speaking an
// incompatible protocol version is reported as a developer error so the
// outcome surfaces through the normalizer without a special case.
func (c *Client) StartConnection(ctx context.Context) (billing.Result, error) {
	token, err := c.getAccessToken()
	if err != nil {
		return billing.Result{}, err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			restful.HEADER_ContentType: restful.MIME_JSON,
			AccessTokenHeader:          token,
		}).
		SetResult(&ConnectResp{}).
		Post(c.url("connection"))

	if err != nil {
		return billing.Result{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return billing.Result{}, errors.New(string(resp.Body()))
	}

	connect := resp.Result().(*ConnectResp)
	result := billing.Result{Code: billing.VendorCode(connect.Code), Message: connect.Message}
	if !result.OK() {
		return result, nil
	}

	if !versionSupported(connect.Data.BridgeVersion) {
		glog.Warningf("bridge version %s is older than %s", connect.Data.BridgeVersion, minBridgeVersion)
		return billing.Result{
			Code:    billing.VendorDeveloperError,
			Message: fmt.Sprintf("bridge version %s not supported", connect.Data.BridgeVersion),
		}, nil
	}

	stop := make(chan struct{})

	c.mu.Lock()
	c.ready = true
	c.sessionID = connect.Data.SessionID
	c.pollStop = stop
	c.mu.Unlock()

	go c.poll(stop)

	return result, nil
}

// EndConnection stops the update poll and releases the bridge session.
func (c *Client) EndConnection() error {
	c.mu.Lock()
	sessionID := c.sessionID
	stop := c.pollStop
	c.ready = false
	c.sessionID = ""
	c.pollStop = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if sessionID == "" {
		return nil
	}

	token, err := c.getAccessToken()
	if err != nil {
		return err
	}

	_, err = c.httpClient.R().
		SetHeader(AccessTokenHeader, token).
		Delete(c.url("connection/" + sessionID))
	return err
}

// Ready reports whether a bridge session is established.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// IsFeatureSupported probes a bridge capability. Transport failures count as
// service unavailable so the probe stays a synchronous bool-like result.
func (c *Client) IsFeatureSupported(feature billing.Feature) billing.Result {
	token, err := c.getAccessToken()
	if err != nil {
		return billing.Result{Code: billing.VendorServiceUnavailable, Message: err.Error()}
	}

	resp, err := c.httpClient.R().
		SetHeader(AccessTokenHeader, token).
		SetQueryParam("session_id", c.session()).
		SetResult(&ResultResp{}).
		Get(c.url("features/" + string(feature)))

	if err != nil || resp.StatusCode() != http.StatusOK {
		return billing.Result{Code: billing.VendorServiceUnavailable}
	}

	return resp.Result().(*ResultResp).result()
}

// QueryProductDetails fetches product definitions for one category.
func (c *Client) QueryProductDetails(ctx context.Context, ids []string, category billing.Category) (billing.Result, []billing.ProductDefinition, error) {
	token, err := c.getAccessToken()
	if err != nil {
		return billing.Result{}, nil, err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			restful.HEADER_ContentType: restful.MIME_JSON,
			AccessTokenHeader:          token,
		}).
		SetBody(queryRequest{SessionID: c.session(), Category: string(category), ItemList: ids}).
		SetResult(&ProductsResp{}).
		Post(c.url("products/query"))

	if err != nil {
		return billing.Result{}, nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return billing.Result{}, nil, errors.New(string(resp.Body()))
	}

	products := resp.Result().(*ProductsResp)
	return billing.Result{Code: billing.VendorCode(products.Code), Message: products.Message}, products.Data, nil
}

// QueryPurchases fetches the owned purchases of one category.
func (c *Client) QueryPurchases(ctx context.Context, category billing.Category) (billing.Result, []billing.Purchase, error) {
	token, err := c.getAccessToken()
	if err != nil {
		return billing.Result{}, nil, err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			restful.HEADER_ContentType: restful.MIME_JSON,
			AccessTokenHeader:          token,
		}).
		SetBody(queryRequest{SessionID: c.session(), Category: string(category)}).
		SetResult(&PurchasesResp{}).
		Post(c.url("purchases/query"))

	if err != nil {
		return billing.Result{}, nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return billing.Result{}, nil, errors.New(string(resp.Body()))
	}

	purchases := resp.Result().(*PurchasesResp)
	return billing.Result{Code: billing.VendorCode(purchases.Code), Message: purchases.Message}, purchases.Data, nil
}

// LaunchPurchaseFlow asks the bridge to open the vendor purchase UI.
func (c *Client) LaunchPurchaseFlow(ctx context.Context, params billing.FlowParams) (billing.Result, error) {
	token, err := c.getAccessToken()
	if err != nil {
		return billing.Result{}, err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			restful.HEADER_ContentType: restful.MIME_JSON,
			AccessTokenHeader:          token,
		}).
		SetBody(flowRequest{
			SessionID:           c.session(),
			ProductID:           params.ProductID,
			OfferToken:          params.OfferToken,
			OldPurchaseToken:    params.OldPurchaseToken,
			ObfuscatedAccountID: params.ObfuscatedAccountID,
			ObfuscatedProfileID: params.ObfuscatedProfileID,
		}).
		SetResult(&ResultResp{}).
		Post(c.url("purchases/flow"))

	if err != nil {
		return billing.Result{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return billing.Result{}, errors.New(string(resp.Body()))
	}

	return resp.Result().(*ResultResp).result(), nil
}

// Consume marks a one-time purchase as used.
func (c *Client) Consume(ctx context.Context, purchaseToken string) (billing.Result, error) {
	return c.finalize(ctx, "purchases/consume", purchaseToken)
}

// Acknowledge confirms receipt of a purchase.
func (c *Client) Acknowledge(ctx context.Context, purchaseToken string) (billing.Result, error) {
	return c.finalize(ctx, "purchases/acknowledge", purchaseToken)
}

func (c *Client) finalize(ctx context.Context, path, purchaseToken string) (billing.Result, error) {
	token, err := c.getAccessToken()
	if err != nil {
		return billing.Result{}, err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			restful.HEADER_ContentType: restful.MIME_JSON,
			AccessTokenHeader:          token,
		}).
		SetBody(finalizeRequest{SessionID: c.session(), PurchaseToken: purchaseToken}).
		SetResult(&ResultResp{}).
		Post(c.url(path))

	if err != nil {
		return billing.Result{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return billing.Result{}, errors.New(string(resp.Body()))
	}

	return resp.Result().(*ResultResp).result(), nil
}

// PurchaseUpdates streams purchase-update pushes from the bridge poll.
func (c *Client) PurchaseUpdates() <-chan billing.PurchaseUpdate {
	return c.updates
}

// Disconnects signals bridge-initiated connection loss.
func (c *Client) Disconnects() <-chan struct{} {
	return c.disconnects
}

func (c *Client) session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// poll long-polls the bridge for unsolicited events until the session ends.
func (c *Client) poll(stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		token, err := c.getAccessToken()
		if err != nil {
			glog.Warningf("update poll token error:%s", err.Error())
			time.Sleep(pollRetryWait)
			continue
		}

		resp, err := c.httpClient.R().
			SetHeader(AccessTokenHeader, token).
			SetQueryParam("session_id", c.session()).
			SetResult(&UpdatesResp{}).
			Get(c.url("updates"))

		if err != nil || resp.StatusCode() != http.StatusOK {
			time.Sleep(pollRetryWait)
			continue
		}

		for _, event := range resp.Result().(*UpdatesResp).Events {
			switch event.Type {
			case UpdatePurchases:
				c.updates <- billing.PurchaseUpdate{
					Result:    billing.Result{Code: billing.VendorCode(event.Code), Message: event.Message},
					Purchases: event.Purchases,
				}
			case UpdateDisconnected:
				c.mu.Lock()
				c.ready = false
				c.mu.Unlock()
				select {
				case c.disconnects <- struct{}{}:
				default:
				}
			}
		}
	}
}
