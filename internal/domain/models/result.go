package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResultVersion is bumped whenever CalculationResult changes shape.
const ResultVersion = 1

// ValoremScheduleEntry is one year of the trailer Valorem schedule.
// Amounts stay zero until the cost calculator resolves them.
type ValoremScheduleEntry struct {
	Year           int             `json:"year"`
	Applies        bool            `json:"applies"`
	PenaltyPercent decimal.Decimal `json:"penaltyPercent"`
	ValoremAmount  decimal.Decimal `json:"valoremAmount"`
	PenaltyAmount  decimal.Decimal `json:"penaltyAmount"`
}

// PenaltyAssessment is the output of the penalty calculator. It is also
// served on its own as a pre-save estimate.
type PenaltyAssessment struct {
	TavtDealerPenaltyPercent *decimal.Decimal `json:"tavtDealerPenaltyPercent"`
	TitleLatePenalty         *decimal.Decimal `json:"titleLatePenalty"`
	DaysDiff                 int              `json:"daysDiff"`
	ReferenceDate            *time.Time       `json:"referenceDate"`
	ProcessingDate           *time.Time       `json:"processingDate"`
}

// Estimate is the read-only rate preview.
type Estimate struct {
	TitleLatePenalty         *decimal.Decimal `json:"titleLatePenalty"`
	TavtDealerPenaltyPercent *decimal.Decimal `json:"tavtDealerPenaltyPercent"`
	TavtPercentage           decimal.Decimal  `json:"tavtPercentage"`
	ValoremApplies           bool             `json:"valoremApplies"`
}

// BreakdownLine is one named contribution to the taxable total.
type BreakdownLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	// InFairValue marks lines that also feed the fair value sum.
	InFairValue bool `json:"inFairValue"`
}

// Subtotal is the final rollup.
type Subtotal struct {
	TavtTotal     decimal.Decimal `json:"tavtTotal"`
	TitleTotal    decimal.Decimal `json:"titleTotal"`
	RegTotal      decimal.Decimal `json:"regTotal"`
	SalesTaxTotal decimal.Decimal `json:"salesTaxTotal"`
	ServiceFee    decimal.Decimal `json:"serviceFee"`
	ValoremTotal  decimal.Decimal `json:"valoremTotal"`
	FinalTotal    decimal.Decimal `json:"finalTotal"`
}

// CalculationResult is the engine's only output.
type CalculationResult struct {
	Version           int                    `json:"version"`
	TicketID          int64                  `json:"ticketId"`
	IsSales           bool                   `json:"isSales"`
	Total             decimal.Decimal        `json:"total"`
	FairValue         decimal.Decimal        `json:"fairValue"`
	FmvApplied        bool                   `json:"fmvApplied"`
	Breakdown         []BreakdownLine        `json:"breakdown"`
	TavtPercentage    decimal.Decimal        `json:"tavtPercentage"`
	TavtValue         decimal.Decimal        `json:"tavtValue"`
	TavtDealerPenalty decimal.Decimal        `json:"tavtDealerPenalty"`
	SalesTaxValue     decimal.Decimal        `json:"salesTaxValue"`
	MillRate          decimal.Decimal        `json:"millRate"`
	ValoremSchedule   []ValoremScheduleEntry `json:"valoremSchedule"`
	Penalties         PenaltyAssessment      `json:"penalties"`
	Subtotal          Subtotal               `json:"subtotal"`
}
