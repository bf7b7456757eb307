package billing

import (
	"context"
	"sync"
)

// categoryScript scripts one category's query outcome.
type categoryScript struct {
	result    Result
	purchases []Purchase
	products  []ProductDefinition
	err       error
	started   chan struct{} // closed when the query was issued, optional
	release   chan struct{} // query blocks until closed, optional
}

// fakeClient is a scriptable in-memory vendor used by the manager tests.
type fakeClient struct {
	mu sync.Mutex

	connectResult Result
	connectErr    error
	connectCalls  int
	ready         bool

	subsSupported Result

	productQueries  map[Category]categoryScript
	purchaseQueries map[Category]categoryScript
	queriedCats     []Category

	launched []FlowParams

	consumeResult  Result
	consumeErr     error
	consumeCalls   int
	consumeRelease chan struct{}
	consumeStarted chan struct{}

	ackResult Result
	ackErr    error
	ackCalls  int

	updates     chan PurchaseUpdate
	disconnects chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connectResult:   Result{Code: VendorOK},
		subsSupported:   Result{Code: VendorOK},
		consumeResult:   Result{Code: VendorOK},
		ackResult:       Result{Code: VendorOK},
		productQueries:  make(map[Category]categoryScript),
		purchaseQueries: make(map[Category]categoryScript),
		updates:         make(chan PurchaseUpdate, 4),
		disconnects:     make(chan struct{}, 1),
	}
}

func (f *fakeClient) StartConnection(ctx context.Context) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if f.connectErr == nil && f.connectResult.OK() {
		f.ready = true
	}
	return f.connectResult, f.connectErr
}

func (f *fakeClient) EndConnection() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = false
	return nil
}

func (f *fakeClient) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeClient) IsFeatureSupported(feature Feature) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subsSupported
}

func (f *fakeClient) QueryProductDetails(ctx context.Context, ids []string, category Category) (Result, []ProductDefinition, error) {
	f.mu.Lock()
	script := f.productQueries[category]
	f.mu.Unlock()
	if script.err != nil {
		return Result{}, nil, script.err
	}
	return script.result, script.products, nil
}

func (f *fakeClient) QueryPurchases(ctx context.Context, category Category) (Result, []Purchase, error) {
	f.mu.Lock()
	script := f.purchaseQueries[category]
	f.queriedCats = append(f.queriedCats, category)
	f.mu.Unlock()

	if script.started != nil {
		close(script.started)
	}
	if script.release != nil {
		<-script.release
	}
	if script.err != nil {
		return Result{}, nil, script.err
	}
	return script.result, script.purchases, nil
}

func (f *fakeClient) LaunchPurchaseFlow(ctx context.Context, params FlowParams) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, params)
	return Result{Code: VendorOK}, nil
}

func (f *fakeClient) Consume(ctx context.Context, token string) (Result, error) {
	f.mu.Lock()
	f.consumeCalls++
	started := f.consumeStarted
	release := f.consumeRelease
	f.mu.Unlock()

	if started != nil {
		close(started)
		f.mu.Lock()
		f.consumeStarted = nil
		f.mu.Unlock()
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return Result{}, f.consumeErr
	}
	return f.consumeResult, nil
}

func (f *fakeClient) Acknowledge(ctx context.Context, token string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ackCalls++
	if f.ackErr != nil {
		return Result{}, f.ackErr
	}
	return f.ackResult, nil
}

func (f *fakeClient) PurchaseUpdates() <-chan PurchaseUpdate {
	return f.updates
}

func (f *fakeClient) Disconnects() <-chan struct{} {
	return f.disconnects
}

func (f *fakeClient) queriedCategories() []Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Category, len(f.queriedCats))
	copy(out, f.queriedCats)
	return out
}

func (f *fakeClient) launchedFlows() []FlowParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FlowParams, len(f.launched))
	copy(out, f.launched)
	return out
}

// recordingSink captures every envelope delivered to the event sink.
type recordingSink struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func (s *recordingSink) PurchasesUpdated(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes = append(s.envelopes, env)
}

func (s *recordingSink) all() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.envelopes))
	copy(out, s.envelopes)
	return out
}
