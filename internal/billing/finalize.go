package billing

import (
	"context"

	"github.com/golang/glog"
)

// FinishTransaction finalizes a purchase: consumption for repurchasable
// one-time items, acknowledgment for everything else.
func (m *Manager) FinishTransaction(ctx context.Context, token string, consume bool) (Envelope, error) {
	if consume {
		return m.Consume(ctx, token)
	}
	return m.Acknowledge(ctx, token)
}

// Consume schedules a consumption for the given token. A token already
// scheduled within this manager's lifetime short-circuits to a synthetic OK
// without contacting the vendor; this covers the same purchase surfacing
// through both a query callback and an update callback. While any finalize
// operation is outstanding, every further consumption is rejected with
// ErrUnfinishedOperation regardless of token.
func (m *Manager) Consume(ctx context.Context, token string) (Envelope, error) {
	m.mu.Lock()
	if _, scheduled := m.consumed[token]; scheduled {
		m.mu.Unlock()
		glog.V(2).Infof("token already scheduled for consumption, short-circuiting")
		return FormatResponse(Result{Code: VendorOK}, nil), nil
	}
	m.mu.Unlock()

	select {
	case m.finalizeSlot <- struct{}{}:
	default:
		return Envelope{}, ErrUnfinishedOperation
	}
	defer func() { <-m.finalizeSlot }()

	m.mu.Lock()
	m.consumed[token] = struct{}{}
	m.mu.Unlock()

	if err := m.ensureConnected(ctx); err != nil {
		return Envelope{}, err
	}

	result, err := m.client.Consume(ctx, token)
	if err != nil {
		return Envelope{}, err
	}

	m.bus.Publish(TopicConsumeFinished, token, result)
	return FormatResponse(result, nil), nil
}

// Acknowledge confirms a purchase without consuming it. No deduplication and
// no slot gating; the vendor result is formatted and returned directly.
func (m *Manager) Acknowledge(ctx context.Context, token string) (Envelope, error) {
	result, err := m.client.Acknowledge(ctx, token)
	if err != nil {
		return Envelope{}, err
	}
	return FormatResponse(result, nil), nil
}
