package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/golang/glog"
)

// ClientNotInitialized is reported by ResponseCode before the first setup
// callback was received.
const ClientNotInitialized VendorCode = -1

// Observer topics published on the manager bus. Setup and consume events feed
// direct call-site observers; purchases-updated feeds the push channel.
const (
	TopicSetupFinished    = "billing:setupFinished"
	TopicConsumeFinished  = "billing:consumeFinished"
	TopicPurchasesUpdated = "billing:purchasesUpdated"
)

// EventSink receives purchases-updated notifications that happen outside the
// context of a direct call, such as unsolicited vendor pushes.
type EventSink interface {
	PurchasesUpdated(env Envelope)
}

// Manager orchestrates all interactions with the billing service: it owns the
// connection lifecycle, the product catalog, the purchase inventory and the
// finalize bookkeeping, and converts vendor results into stable envelopes.
type Manager struct {
	client Client
	sink   EventSink
	bus    EventBus.Bus

	mu        sync.RWMutex
	state     ConnectionState
	setupCode VendorCode
	purchases []Purchase
	catalog   map[string]ProductDefinition
	consumed  map[string]struct{}

	// finalizeSlot serializes consume/acknowledge finalization: at most one
	// outstanding operation system-wide. Acquired non-blocking, released on
	// every exit path.
	finalizeSlot chan struct{}

	stopOnce sync.Once
	done     chan struct{}
}

// NewManager wires a manager around the given vendor client and event sink
// and starts draining the client's push channels.
func NewManager(client Client, sink EventSink) *Manager {
	m := &Manager{
		client:       client,
		sink:         sink,
		bus:          EventBus.New(),
		state:        Uninitialized,
		setupCode:    ClientNotInitialized,
		catalog:      make(map[string]ProductDefinition),
		consumed:     make(map[string]struct{}),
		finalizeSlot: make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	go m.pump()
	return m
}

// Bus exposes the manager's observer bus for TopicSetupFinished,
// TopicConsumeFinished and TopicPurchasesUpdated subscriptions.
func (m *Manager) Bus() EventBus.Bus {
	return m.bus
}

// Connect performs the setup handshake with the billing service. The vendor
// response code is recorded regardless of outcome.
func (m *Manager) Connect(ctx context.Context) error {
	m.setState(Connecting)

	result, err := m.client.StartConnection(ctx)
	if err != nil {
		m.recordSetup(ClientNotInitialized, Disconnected)
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if !result.OK() {
		m.recordSetup(result.Code, Disconnected)
		return fmt.Errorf("%w: vendor code %d", ErrServiceUnavailable, result.Code)
	}

	m.recordSetup(result.Code, Connected)
	m.bus.Publish(TopicSetupFinished)
	glog.Infof("billing client setup finished, code=%d", result.Code)
	return nil
}

// ensureConnected transparently layers exactly one reconnect attempt before
// the requested operation when the connection was lost. No backoff, no retry
// counter.
func (m *Manager) ensureConnected(ctx context.Context) error {
	if m.State() == Connected {
		return nil
	}
	return m.Connect(ctx)
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ResponseCode returns the last recorded vendor setup code, or
// ClientNotInitialized before the first setup callback.
func (m *Manager) ResponseCode() VendorCode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setupCode
}

// SubscriptionsSupported probes the vendor for subscription support.
func (m *Manager) SubscriptionsSupported() bool {
	return m.client.IsFeatureSupported(FeatureSubscriptions).OK()
}

// Purchases returns a snapshot of the current purchase inventory.
func (m *Manager) Purchases() []Purchase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Purchase, len(m.purchases))
	copy(out, m.purchases)
	return out
}

// Destroy stops the update pump and tears the vendor connection down.
func (m *Manager) Destroy() error {
	m.stopOnce.Do(func() {
		close(m.done)
	})
	if m.client.Ready() {
		return m.client.EndConnection()
	}
	return nil
}

func (m *Manager) setState(state ConnectionState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

func (m *Manager) recordSetup(code VendorCode, state ConnectionState) {
	m.mu.Lock()
	m.setupCode = code
	m.state = state
	m.mu.Unlock()
}

// pump drains the vendor push channels until Destroy. Updates and disconnects
// arrive on a vendor-managed goroutine; funneling them through this single
// loop keeps inventory mutation single-threaded.
func (m *Manager) pump() {
	for {
		select {
		case <-m.done:
			return
		case update, ok := <-m.client.PurchaseUpdates():
			if !ok {
				return
			}
			m.onPurchasesUpdated(update)
		case _, ok := <-m.client.Disconnects():
			if !ok {
				return
			}
			glog.Warning("billing service disconnected")
			m.setState(Disconnected)
		}
	}
}

// onPurchasesUpdated handles a purchase-update push. OK updates extend the
// inventory and notify observers with the full inventory; anything else is
// forwarded to the event sink as a bare envelope.
func (m *Manager) onPurchasesUpdated(update PurchaseUpdate) {
	if update.Result.OK() && update.Purchases != nil {
		m.mu.Lock()
		m.purchases = append(m.purchases, update.Purchases...)
		inventory := make([]Purchase, len(m.purchases))
		copy(inventory, m.purchases)
		m.mu.Unlock()

		m.notifyPurchasesUpdated(update.Result, inventory)
		return
	}

	env := FormatResponse(update.Result, nil)
	m.bus.Publish(TopicPurchasesUpdated, env)
	if m.sink != nil {
		m.sink.PurchasesUpdated(env)
	}
}

// notifyPurchasesUpdated formats the given inventory and delivers it to the
// bus observers and the external event sink.
func (m *Manager) notifyPurchasesUpdated(result Result, inventory []Purchase) {
	bundles := make([]interface{}, 0, len(inventory))
	for _, p := range inventory {
		bundles = append(bundles, p.Bundle())
	}
	env := FormatResponse(result, bundles)
	m.bus.Publish(TopicPurchasesUpdated, env)
	if m.sink != nil {
		m.sink.PurchasesUpdated(env)
	}
}
