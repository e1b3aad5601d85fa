package sync

import (
	"context"

	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/types"
)

// CustomerStore is the customers pipeline's view of the store. The
// production implementation, pgCustomerStore, is a thin adapter over
// pkg/repository; tests substitute an in-memory fake (see
// customers_test.go).
type CustomerStore interface {
	GetHash(ctx context.Context, userID, profile string) (hash string, found bool, err error)
	Upsert(ctx context.Context, c *types.Customer) error
	TouchSync(ctx context.Context, userID, profile string) error
	Prune(ctx context.Context, userID string, seenProfiles []string) (int64, error)
}

type pgCustomerStore struct{ s *store.Store }

// NewCustomerStore builds the production CustomerStore.
func NewCustomerStore(s *store.Store) CustomerStore { return pgCustomerStore{s: s} }

func (p pgCustomerStore) GetHash(ctx context.Context, userID, profile string) (string, bool, error) {
	return repository.GetCustomerHash(ctx, p.s, userID, profile)
}
func (p pgCustomerStore) Upsert(ctx context.Context, c *types.Customer) error {
	return repository.UpsertCustomer(ctx, p.s, c)
}
func (p pgCustomerStore) TouchSync(ctx context.Context, userID, profile string) error {
	return repository.TouchCustomerSync(ctx, p.s, userID, profile)
}
func (p pgCustomerStore) Prune(ctx context.Context, userID string, seenProfiles []string) (int64, error) {
	return repository.PruneCustomers(ctx, p.s, userID, seenProfiles)
}

// OrderStore is the orders pipeline's view of the store.
type OrderStore interface {
	GetForReconcile(ctx context.Context, userID, id string) (repository.ExistingOrder, bool, error)
	Insert(ctx context.Context, o *types.Order) error
	Update(ctx context.Context, o *types.Order) error
	TouchSync(ctx context.Context, userID, id, orderNumber string) error
	UpsertArticles(ctx context.Context, orderID, userID string, articles []*types.OrderArticle) error
	Prune(ctx context.Context, userID string, seenIDs []string) (int64, error)
}

type pgOrderStore struct{ s *store.Store }

// NewOrderStore builds the production OrderStore.
func NewOrderStore(s *store.Store) OrderStore { return pgOrderStore{s: s} }

func (p pgOrderStore) GetForReconcile(ctx context.Context, userID, id string) (repository.ExistingOrder, bool, error) {
	return repository.GetOrderForReconcile(ctx, p.s, userID, id)
}
func (p pgOrderStore) Insert(ctx context.Context, o *types.Order) error {
	return repository.InsertOrder(ctx, p.s, o)
}
func (p pgOrderStore) Update(ctx context.Context, o *types.Order) error {
	return repository.UpdateOrder(ctx, p.s, o)
}
func (p pgOrderStore) TouchSync(ctx context.Context, userID, id, orderNumber string) error {
	return repository.TouchOrderSync(ctx, p.s, userID, id, orderNumber)
}
func (p pgOrderStore) UpsertArticles(ctx context.Context, orderID, userID string, articles []*types.OrderArticle) error {
	return repository.UpsertOrderArticles(ctx, p.s, orderID, userID, articles)
}
func (p pgOrderStore) Prune(ctx context.Context, userID string, seenIDs []string) (int64, error) {
	return repository.PruneOrders(ctx, p.s, userID, seenIDs)
}

// ProductStore is the products pipeline's view of the store.
type ProductStore interface {
	GetState(ctx context.Context, id string) (repository.ProductState, bool, error)
	Upsert(ctx context.Context, p *types.Product) error
	TouchSync(ctx context.Context, id string) error
	SoftDeleteMissing(ctx context.Context, seenIDs []string) ([]string, error)
	RecordChange(ctx context.Context, productID string, changeType types.ProductChangeType, syncSessionID string) error
}

type pgProductStore struct{ s *store.Store }

// NewProductStore builds the production ProductStore.
func NewProductStore(s *store.Store) ProductStore { return pgProductStore{s: s} }

func (p pgProductStore) GetState(ctx context.Context, id string) (repository.ProductState, bool, error) {
	return repository.GetProductState(ctx, p.s, id)
}
func (p pgProductStore) Upsert(ctx context.Context, pr *types.Product) error {
	return repository.UpsertProduct(ctx, p.s, pr)
}
func (p pgProductStore) TouchSync(ctx context.Context, id string) error {
	return repository.TouchProductSync(ctx, p.s, id)
}
func (p pgProductStore) SoftDeleteMissing(ctx context.Context, seenIDs []string) ([]string, error) {
	return repository.SoftDeleteProducts(ctx, p.s, seenIDs)
}
func (p pgProductStore) RecordChange(ctx context.Context, productID string, changeType types.ProductChangeType, syncSessionID string) error {
	return repository.RecordProductChange(ctx, p.s, productID, changeType, syncSessionID)
}

// PriceStore is the prices pipeline's view of the store.
type PriceStore interface {
	GetForReconcile(ctx context.Context, p *types.Price) (repository.ExistingPrice, bool, error)
	Upsert(ctx context.Context, p *types.Price) error
	RecordHistory(ctx context.Context, h *types.PriceHistory) error
}

type pgPriceStore struct{ s *store.Store }

// NewPriceStore builds the production PriceStore.
func NewPriceStore(s *store.Store) PriceStore { return pgPriceStore{s: s} }

func (p pgPriceStore) GetForReconcile(ctx context.Context, pr *types.Price) (repository.ExistingPrice, bool, error) {
	return repository.GetPriceForReconcile(ctx, p.s, pr)
}
func (p pgPriceStore) Upsert(ctx context.Context, pr *types.Price) error {
	return repository.UpsertPrice(ctx, p.s, pr)
}
func (p pgPriceStore) RecordHistory(ctx context.Context, h *types.PriceHistory) error {
	return repository.RecordPriceHistory(ctx, p.s, h)
}

// DDTStore is the DDT-enrichment pipeline's view of the store.
type DDTStore interface {
	FindOrderIDByNumber(ctx context.Context, userID, orderNumber string) (string, bool, error)
	UpdateDDT(ctx context.Context, orderID, userID, ddtNumber string, ddtDate *int64) error
}

type pgDDTStore struct{ s *store.Store }

// NewDDTStore builds the production DDTStore.
func NewDDTStore(s *store.Store) DDTStore { return pgDDTStore{s: s} }

func (p pgDDTStore) FindOrderIDByNumber(ctx context.Context, userID, orderNumber string) (string, bool, error) {
	return repository.FindOrderIDByNumber(ctx, p.s, userID, orderNumber)
}
func (p pgDDTStore) UpdateDDT(ctx context.Context, orderID, userID, ddtNumber string, ddtDate *int64) error {
	return repository.UpdateDDT(ctx, p.s, orderID, userID, ddtNumber, ddtDate)
}

// InvoiceStore is the invoice-enrichment pipeline's view of the store.
type InvoiceStore interface {
	FindOrderIDByNumber(ctx context.Context, userID, orderNumber string) (string, bool, error)
	UpdateInvoice(ctx context.Context, orderID, userID, invoiceNumber string, invoiceDate *int64) error
}

type pgInvoiceStore struct{ s *store.Store }

// NewInvoiceStore builds the production InvoiceStore.
func NewInvoiceStore(s *store.Store) InvoiceStore { return pgInvoiceStore{s: s} }

func (p pgInvoiceStore) FindOrderIDByNumber(ctx context.Context, userID, orderNumber string) (string, bool, error) {
	return repository.FindOrderIDByNumber(ctx, p.s, userID, orderNumber)
}
func (p pgInvoiceStore) UpdateInvoice(ctx context.Context, orderID, userID, invoiceNumber string, invoiceDate *int64) error {
	return repository.UpdateInvoice(ctx, p.s, orderID, userID, invoiceNumber, invoiceDate)
}
