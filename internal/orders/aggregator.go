// Package orders aggregates the order and document collections into a single
// denormalized list: each order carries the count of documents referencing it.
package orders

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"mittrack/internal/api"
	"mittrack/internal/model"
)

// API is the slice of the remote client the aggregator needs.
type API interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListDocuments(ctx context.Context, limit int) ([]model.OrderDocument, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderHistory(ctx context.Context, orderID string, limit int) (*model.OrderVersionHistory, error)
}

// Aggregator owns the merged order list. The list is replaced wholesale on
// every fetch and emptied on failure; it is never partially updated.
type Aggregator struct {
	api       API
	pageLimit int
	log       *slog.Logger

	mu      sync.Mutex
	orders  []model.Order
	loading bool
	errMsg  string
	gen     uint64 // generation of the latest issued fetch
}

// New builds the aggregator and runs the initial fetch once.
func New(ctx context.Context, apiClient API, pageLimit int, log *slog.Logger) *Aggregator {
	a := NewIdle(apiClient, pageLimit, log)
	a.FetchAll(ctx)
	return a
}

// NewIdle builds the aggregator without the initial fetch, for callers that
// only need the single-order operations.
func NewIdle(apiClient API, pageLimit int, log *slog.Logger) *Aggregator {
	if pageLimit <= 0 {
		pageLimit = 1000
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{
		api:       apiClient,
		pageLimit: pageLimit,
		log:       log,
	}
}

// FetchAll fetches the order and document collections, joins them, and
// publishes the merged list. Both halves must complete before anything is
// published; on any failure the list is emptied and the error recorded
// (fail-closed). A fetch that is no longer the latest issued one discards its
// result instead of clobbering newer state.
func (a *Aggregator) FetchAll(ctx context.Context) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.loading = true
	a.errMsg = ""
	a.mu.Unlock()

	var (
		orders []model.Order
		docs   []model.OrderDocument
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = a.api.ListOrders(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = a.api.ListDocuments(gctx, a.pageLimit)
		return err
	})
	err := g.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.gen {
		a.log.Debug("discarding stale fetch", "gen", gen, "latest", a.gen)
		return
	}

	a.loading = false
	if err != nil {
		a.orders = nil
		a.errMsg = api.Message(err, "failed to load orders")
		a.log.Error("aggregate fetch failed", "error", err)
		return
	}

	a.orders = attachDocumentCounts(orders, docs)
	a.log.Info("orders aggregated", "orders", len(a.orders), "documents", len(docs))
}

// Refetch re-runs FetchAll; intended for manual refresh or after a mutation
// elsewhere.
func (a *Aggregator) Refetch(ctx context.Context) {
	a.FetchAll(ctx)
}

// Orders returns a copy of the current merged list.
func (a *Aggregator) Orders() []model.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Order, len(a.orders))
	copy(out, a.orders)
	return out
}

func (a *Aggregator) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Err returns the message recorded by the last failed operation, or "".
func (a *Aggregator) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

// GetOrderDetails fetches one order independently of the aggregated list.
// The list is never touched; on failure the error is recorded and nil
// returned.
func (a *Aggregator) GetOrderDetails(ctx context.Context, orderID string) *model.Order {
	order, err := a.api.GetOrder(ctx, orderID)
	if err != nil {
		a.recordErr(api.Message(err, "failed to load order details"))
		a.log.Warn("order details fetch failed", "order_id", orderID, "error", err)
		return nil
	}
	return order
}

// GetOrderHistory fetches the audit trail of an order, optionally bounded to
// the most recent limit entries. Not cached; same failure handling as
// GetOrderDetails.
func (a *Aggregator) GetOrderHistory(ctx context.Context, orderID string, limit int) *model.OrderVersionHistory {
	history, err := a.api.GetOrderHistory(ctx, orderID, limit)
	if err != nil {
		a.recordErr(api.Message(err, "failed to load order history"))
		a.log.Warn("order history fetch failed", "order_id", orderID, "error", err)
		return nil
	}
	return history
}

func (a *Aggregator) recordErr(msg string) {
	a.mu.Lock()
	a.errMsg = msg
	a.mu.Unlock()
}

// attachDocumentCounts is the join stage: every document carrying an order_id
// bumps that order's count; orders without documents get zero; documents
// referencing an unknown order are dropped.
func attachDocumentCounts(orders []model.Order, docs []model.OrderDocument) []model.Order {
	counts := countDocuments(docs)
	merged := make([]model.Order, len(orders))
	for i, order := range orders {
		order.DocumentsCount = counts[order.OrderID]
		merged[i] = order
	}
	return merged
}

func countDocuments(docs []model.OrderDocument) map[string]int {
	counts := make(map[string]int, len(docs))
	for _, doc := range docs {
		if doc.OrderID == "" {
			continue
		}
		counts[doc.OrderID]++
	}
	return counts
}
