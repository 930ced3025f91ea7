package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType selects the pricing tier for a sale.
type CustomerType string

const (
	CustomerRetail    CustomerType = "retail"
	CustomerLongTerm  CustomerType = "long-term"
	CustomerWholesale CustomerType = "wholesale"
)

// Wholesale reports whether this tier is priced at wholesale_price.
func (t CustomerType) Wholesale() bool {
	return t == CustomerLongTerm || t == CustomerWholesale
}

// DiscountType describes how a discount value is interpreted.
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

// BalanceType is the sign convention tag on an opening balance.
type BalanceType string

const (
	BalanceDebit  BalanceType = "debit"
	BalanceCredit BalanceType = "credit"
)

// SaleStatus is the lifecycle state of a sale. Sales are created as
// completed; voiding restocks every line and keeps the row for history.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleVoided    SaleStatus = "voided"
)

// Product is a catalog row. IDs are externally assigned and stable.
// StockQuantity never goes below zero; TotalSold only grows (void reversals
// excepted).
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	StockQuantity  int             `json:"stock_quantity"`
	TotalSold      int             `json:"total_sold"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
}

// Customer master record. Balance is a cached summary maintained by the
// reconciler; positive means the customer owes the business.
type Customer struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	Address            string          `json:"address"`
	Type               CustomerType    `json:"customer_type"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceType BalanceType     `json:"opening_balance_type"`
	Balance            decimal.Decimal `json:"balance"`
	CreditLimit        decimal.Decimal `json:"credit_limit"`
	CreatedAt          time.Time       `json:"created_at"`
	DeletedAt          *time.Time      `json:"deleted_at,omitempty"`
}

// Supplier master record. OpeningBalance is stored pre-signed at creation
// time (credit openings negative); positive balance means the business owes
// the supplier.
type Supplier struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	Address            string          `json:"address"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceType BalanceType     `json:"opening_balance_type"`
	Balance            decimal.Decimal `json:"balance"`
	CreatedAt          time.Time       `json:"created_at"`
	DeletedAt          *time.Time      `json:"deleted_at,omitempty"`
}

// Sale is a finalized sale header. Invariants:
//
//	Subtotal    = Σ(quantity × final_price) across items
//	TotalAmount = max(0, Subtotal − DiscountAmount)
type Sale struct {
	ID                 int             `json:"id"`
	CustomerID         *int            `json:"customer_id,omitempty"` // nil = walk-in
	CustomerType       CustomerType    `json:"customer_type"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountType       DiscountType    `json:"discount_type"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Status             SaleStatus      `json:"status"`
	CashierID          string          `json:"cashier_id"`
	CashierName        string          `json:"cashier_name"`
	SaleDate           time.Time       `json:"sale_date"`
	CreatedAt          time.Time       `json:"created_at"`
	Items              []SaleItem      `json:"items"`
}

// SaleItem is an immutable historical snapshot of a product at sale time.
// Later catalog edits never alter it.
type SaleItem struct {
	ID             int             `json:"id"`
	SaleID         int             `json:"sale_id"`
	ProductID      *string         `json:"product_id,omitempty"`
	ProductName    string          `json:"product_name"`
	Brand          string          `json:"brand"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	Quantity       int             `json:"quantity"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Purchase is a supplier debit: it increases the amount the business owes.
type Purchase struct {
	ID           int             `json:"id"`
	SupplierID   int             `json:"supplier_id"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Description  string          `json:"description"`
	ReferenceNo  string          `json:"reference_no"`
	PurchaseDate string          `json:"purchase_date"` // YYYY-MM-DD
	CreatedAt    time.Time       `json:"created_at"`
}

// Payment is a credit event against exactly one of customer / supplier.
type Payment struct {
	ID            int             `json:"id"`
	CustomerID    *int            `json:"customer_id,omitempty"`
	SupplierID    *int            `json:"supplier_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	ReferenceNo   string          `json:"reference_no"`
	Notes         string          `json:"notes"`
	PaymentDate   string          `json:"payment_date"` // YYYY-MM-DD
	CreatedAt     time.Time       `json:"created_at"`
}

// SaleItemInput is one requested line on a new sale. Price is the
// client-submitted unit price, validated against the catalog tier price for
// every line whose product still resolves.
type SaleItemInput struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	Brand            string          `json:"brand,omitempty"`
	Category         string          `json:"category,omitempty"`
	Unit             string          `json:"unit,omitempty"`
	Quantity         int             `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	FinalPrice       decimal.Decimal `json:"final_price,omitempty"`
	ItemDiscountType DiscountType    `json:"item_discount_type,omitempty"`
	ItemDiscountVal  decimal.Decimal `json:"item_discount_value,omitempty"`
}

// SaleInput is the full request body for creating a sale.
type SaleInput struct {
	CustomerID    *int            `json:"customer_id,omitempty"`
	CustomerType  CustomerType    `json:"customer_type"`
	Items         []SaleItemInput `json:"items"`
	DiscountType  DiscountType    `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value,omitempty"`
	SaleDate      *time.Time      `json:"sale_date,omitempty"`
}

// Cashier carries the acting user's audit identity, supplied by the identity
// middleware. The core trusts it and performs no authorization.
type Cashier struct {
	ID   string
	Name string
	Role string
}
