package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SellerInfo classifies the seller for penalty tiering.
type SellerInfo struct {
	IsDealership bool `json:"isDealership"`
}

// BuyerInfo carries what the engine needs from a buyer record. Dob holds the
// registration expiration date derived by the ticket service.
type BuyerInfo struct {
	Type     string     `json:"type"`
	District string     `json:"district"`
	CountyID int64      `json:"countyId"`
	Dob      *time.Time `json:"dob,omitempty"`
}

// VinInfo describes the vehicle.
type VinInfo struct {
	Type string `json:"type"`
	Year int    `json:"year"`
}

// TicketContext is the read-only ticket snapshot supplied to the engine.
type TicketContext struct {
	TicketID        int64            `json:"ticketId"`
	StartDate       *time.Time       `json:"startDate,omitempty"`
	PurchaseDate    *time.Time       `json:"purchaseDate,omitempty"`
	IsStateTransfer bool             `json:"isStateTransfer"`
	TransactionCode string           `json:"transactionCode"`
	SellerInfo      []SellerInfo     `json:"sellerInfo"`
	BuyerInfo       []BuyerInfo      `json:"buyerInfo"`
	VinInfo         VinInfo          `json:"vinInfo"`
	FmvPrice        *decimal.Decimal `json:"fmvPrice"`
	// InitialTotalCost is registrationInfo.initialTotalCost.
	InitialTotalCost decimal.Decimal `json:"initialTotalCost"`
	IsTitle          bool            `json:"isTitle"`
	IsRegistration   bool            `json:"isRegistration"`
	// ServiceFeeOverride is the customer-specific price, TransactionTypePrice
	// the default for the transaction type.
	ServiceFeeOverride   *decimal.Decimal `json:"serviceFeeOverride"`
	TransactionTypePrice *decimal.Decimal `json:"transactionTypePrice"`
	TradeIns             []TradeIn        `json:"tradeIns"`
}

// PrimaryBuyer returns the first buyer record, if any.
func (t TicketContext) PrimaryBuyer() (BuyerInfo, bool) {
	if len(t.BuyerInfo) == 0 {
		return BuyerInfo{}, false
	}
	return t.BuyerInfo[0], true
}

// PrimarySeller returns the first seller record, if any.
func (t TicketContext) PrimarySeller() (SellerInfo, bool) {
	if len(t.SellerInfo) == 0 {
		return SellerInfo{}, false
	}
	return t.SellerInfo[0], true
}

// HasTransactionCode compares the transaction type code case-insensitively.
func (t TicketContext) HasTransactionCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(t.TransactionCode), code)
}

// IsTrailer reports whether the vehicle carries a Valorem schedule.
func (t TicketContext) IsTrailer() bool {
	return strings.EqualFold(strings.TrimSpace(t.VinInfo.Type), "trailer")
}

// ComputeRequest is the engine input: a form snapshot, the ticket snapshot
// and the previously stored isSales flag (nil when no form was stored).
// PreviousIsSales only drives the reset decision in TaxService.Save; the
// computation itself does not read it.
type ComputeRequest struct {
	Form            TaxForm       `json:"form"`
	TicketContext   TicketContext `json:"ticketContext"`
	PreviousIsSales *bool         `json:"previousIsSales"`
}

// NeedsReset reports whether the save toggles the sales/TAVT mode.
func (r ComputeRequest) NeedsReset() bool {
	return r.PreviousIsSales != nil && *r.PreviousIsSales != r.Form.IsSales
}
