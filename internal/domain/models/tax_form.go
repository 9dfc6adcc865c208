package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxForm is the per-ticket tax input sheet. Rate inputs are nullable:
// nil means the engine resolves the value, non-nil is a user override.
type TaxForm struct {
	ID          int64      `json:"id"`
	TicketID    int64      `json:"ticketId"`
	IsSales     bool       `json:"isSales"`
	ArrivalDate *time.Time `json:"arrivalDate,omitempty"`

	SalesPrice           decimal.Decimal `json:"salesPrice"`
	Rebates              decimal.Decimal `json:"rebates"`
	Discount             decimal.Decimal `json:"discount"`
	Accessories          decimal.Decimal `json:"accessories"`
	AdministrationFees   decimal.Decimal `json:"administrationFees"`
	DealerHandling       decimal.Decimal `json:"dealerHandling"`
	DeliveryFees         decimal.Decimal `json:"deliveryFees"`
	DocumentationFees    decimal.Decimal `json:"documentationFees"`
	ShippingHandlingFees decimal.Decimal `json:"shippingHandlingFees"`
	AgreedUponValue      decimal.Decimal `json:"agreedUponValue"`
	Amortized            decimal.Decimal `json:"amortized"`
	Depreciation         decimal.Decimal `json:"depreciation"`
	DownPayment          decimal.Decimal `json:"downPayment"`

	TavtPercentage              *decimal.Decimal `json:"tavtPercentage"`
	TavtDealerPenaltyPercentage *decimal.Decimal `json:"tavtDealerPenaltyPercentage"`
	SalesTaxPercentage          decimal.Decimal  `json:"salesTaxPercentage"`

	TitleFees        decimal.Decimal  `json:"titleFees"`
	TitleLatePenalty *decimal.Decimal `json:"titleLatePenalty"`

	TaxExemptionID *int64     `json:"taxExemptionId,omitempty"`
	OtherFees      []OtherFee `json:"otherFees"`
}

// FreshTaxForm is the form left behind by a sales/TAVT mode reset.
func FreshTaxForm(ticketID int64, isSales bool) TaxForm {
	return TaxForm{TicketID: ticketID, IsSales: isSales, OtherFees: []OtherFee{}}
}

// TaxableMaster is looked up by id; the form does not own it.
type TaxableMaster struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsTaxable bool   `json:"isTaxable"`
}

// OtherFee is an extra line item on the form.
type OtherFee struct {
	ID            int64           `json:"id"`
	FormID        int64           `json:"formId"`
	Price         decimal.Decimal `json:"price"`
	TaxableMaster TaxableMaster   `json:"taxableMaster"`
}

// TradeIn is a vehicle traded in on the ticket.
type TradeIn struct {
	TradeInAllowance decimal.Decimal `json:"tradeInAllowance"`
}
