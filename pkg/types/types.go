// Package types holds the domain records synchronized from the upstream
// application into the shared store, plus the sync kinds and sync
// settings the sync engine passes between its layers. Run results and
// progress callbacks live in pkg/sync.
package types

import "time"

// SyncKind identifies one of the six reconciliation pipelines.
type SyncKind string

const (
	SyncCustomers SyncKind = "customers"
	SyncOrders    SyncKind = "orders"
	SyncProducts  SyncKind = "products"
	SyncPrices    SyncKind = "prices"
	SyncDDT       SyncKind = "ddt"
	SyncInvoices  SyncKind = "invoices"
)

// AllSyncKinds lists every pipeline the scheduler knows about, in the
// order settings are seeded on first boot.
var AllSyncKinds = []SyncKind{
	SyncCustomers, SyncOrders, SyncProducts, SyncPrices, SyncDDT, SyncInvoices,
}

// PerTenant reports whether a sync kind is scoped to a single user
// (true) or shared across all tenants (false).
func (k SyncKind) PerTenant() bool {
	switch k {
	case SyncProducts, SyncPrices:
		return false
	default:
		return true
	}
}

// UserRole distinguishes a sales agent from an administrator.
type UserRole string

const (
	RoleAgent UserRole = "agent"
	RoleAdmin UserRole = "admin"
)

// User is the identity behind a per-tenant sync. Users are created the
// first time the upstream identifies them and are never deleted by the
// sync engine.
type User struct {
	ID                string
	Username          string
	Role              UserRole
	Whitelisted       bool
	LastLogin         *time.Time
	LastCustomerSync  *time.Time
	LastOrderSync     *time.Time
}

// Customer is a tenant-scoped record identified by (CustomerProfile, UserID).
type Customer struct {
	UserID          string
	CustomerProfile string

	Name               string
	VAT                string
	FiscalCode         string
	Address            string
	City               string
	Province           string
	PostalCode         string
	Country            string
	Phone              string
	Mobile             string
	Email              string
	PEC                string
	SDICode            string
	ContactPerson      string
	PaymentTerms       string
	PaymentMethod      string
	PriceList          string
	DiscountGroup      string
	SalesAgent         string
	Category           string
	Segment            string
	Notes              string
	CreditLimit        string
	IBAN                string
	BIC                 string
	ShippingAddress     string
	ShippingCity        string
	ShippingProvince    string
	ShippingPostalCode  string

	Hash     string
	LastSync time.Time
}

// Order is a tenant-scoped record identified by (ID, UserID). OrderNumber
// is secondary, mutable, and tracked out of band from the content hash.
type Order struct {
	ID             string
	UserID         string
	OrderNumber    string

	SalesStatus     string
	DocumentStatus  string
	TransferStatus  string
	TotalAmount     string // decimal-as-string
	TaxAmount       string
	NetAmount       string

	DDTNumber      string
	DDTDate        *time.Time
	InvoiceNumber  string
	InvoiceDate    *time.Time

	CurrentState string

	Hash     string
	LastSync time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderArticle is a line item of an Order; deleted in cascade with it.
type OrderArticle struct {
	OrderID     string
	UserID      string
	LineNumber  int

	ArticleCode string
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string

	CreatedAt time.Time
}

// OrderStateHistory is an append-only log entry of an order's lifecycle
// state transitions.
type OrderStateHistory struct {
	ID         string
	OrderID    string
	UserID     string

	OldState   string
	NewState   string
	Actor      string
	Notes      string
	Confidence *float64
	Source     string

	Timestamp time.Time
}

// Product is shared across tenants; ID is the upstream identifier. Hash
// is supplied by the snapshot parser, not recomputed.
type Product struct {
	ID string

	Name        string
	Description string
	Category    string
	Brand       string
	SKU         string
	Unit        string
	VAT         string
	Price       string

	ImageURL       string
	ImageLocalPath string

	DeletedAt *time.Time

	Hash     string
	LastSync time.Time
}

// Price is shared; row identity is (ProductID, PriceValidFrom,
// COALESCE(PriceQtyFrom, 0)). ItemSelection may be nil.
type Price struct {
	ProductID      string
	ItemSelection  *string

	UnitPrice string

	PriceValidFrom time.Time
	PriceValidTo   *time.Time
	PriceQtyFrom   *float64
	PriceQtyTo     *float64

	Hash string
}

// ProductChangeType enumerates the kinds of change a product pipeline
// can record.
type ProductChangeType string

const (
	ProductCreated  ProductChangeType = "created"
	ProductUpdated  ProductChangeType = "updated"
	ProductDeleted  ProductChangeType = "deleted"
	ProductRestored ProductChangeType = "restored"
)

// ProductChange is an append-only audit row for the product pipeline.
type ProductChange struct {
	ID            string
	ProductID     string
	ChangeType    ProductChangeType
	ChangedAt     time.Time
	SyncSessionID string
}

// PriceChangeType enumerates the kinds of change price_history records.
type PriceChangeType string

const (
	PriceIncrease PriceChangeType = "increase"
	PriceDecrease PriceChangeType = "decrease"
	PriceNew      PriceChangeType = "new"
)

// PriceHistory is an append-only audit row emitted whenever a price
// value changes.
type PriceHistory struct {
	ID                string
	ProductID         string
	VariantID         *string
	OldPrice          *string
	NewPrice          string
	PercentageChange  *float64
	ChangeType        PriceChangeType
	SyncDate          time.Time
	Source            string
}

// SyncSetting is the persisted {interval, enabled} tuple for one sync
// kind.
type SyncSetting struct {
	SyncType        SyncKind
	IntervalMinutes int
	Enabled         bool
	UpdatedAt       time.Time
}
