package services

import (
	"context"
	"fmt"
	"strings"

	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/shopspring/decimal"
)

// CostCalculator aggregates the fee lines of a form into the taxable total
// and resolves either the sales tax or the TAVT and Valorem amounts.
type CostCalculator struct {
	Resolver RateResolver
	Rules    config.TaxRules
}

// Compute fills every CalculationResult field except the subtotal. The
// form's TavtPercentage and TavtDealerPenaltyPercentage must already be
// resolved; nil is treated as zero.
func (c CostCalculator) Compute(
	ctx context.Context,
	form models.TaxForm,
	ticket models.TicketContext,
	otherFees []models.OtherFee,
	tradeIns []models.TradeIn,
	schedule []models.ValoremScheduleEntry,
) models.CalculationResult {
	res := models.CalculationResult{
		Version:         models.ResultVersion,
		TicketID:        form.TicketID,
		IsSales:         form.IsSales,
		Breakdown:       []models.BreakdownLine{},
		ValoremSchedule: []models.ValoremScheduleEntry{},
	}

	salesPrice := form.SalesPrice
	if fmvApplies(ticket, form.SalesPrice) {
		salesPrice = decimal.Zero
		res.FmvApplied = true
	}

	total := decimal.Zero
	fairValue := decimal.Zero
	add := func(name string, amount decimal.Decimal) {
		total = total.Add(amount)
		fairValue = fairValue.Add(amount)
		res.Breakdown = append(res.Breakdown, models.BreakdownLine{Name: name, Amount: amount, InFairValue: true})
	}
	subtract := func(name string, amount decimal.Decimal) {
		total = total.Sub(amount)
		res.Breakdown = append(res.Breakdown, models.BreakdownLine{Name: name, Amount: amount.Neg()})
	}

	add("salesPrice", salesPrice)
	add("accessories", form.Accessories)
	add("administrationFees", form.AdministrationFees)
	add("dealerHandling", form.DealerHandling)
	add("deliveryFees", form.DeliveryFees)
	add("documentationFees", form.DocumentationFees)
	add("shippingHandlingFees", form.ShippingHandlingFees)
	subtract("rebates", form.Rebates)
	subtract("discount", form.Discount)

	if res.FmvApplied {
		add("fmvPrice", *ticket.FmvPrice)
	}

	for i, fee := range otherFees {
		if !fee.TaxableMaster.IsTaxable {
			continue
		}
		add(otherFeeLabel(i, fee), fee.Price)
	}

	for i, t := range tradeIns {
		subtract(fmt.Sprintf("tradeIn[%d]", i), t.TradeInAllowance)
	}

	res.FairValue = fairValue
	res.Total = utils.Round2(total)

	if form.IsSales {
		res.SalesTaxValue = utils.Round2(utils.Percent(form.SalesTaxPercentage).Mul(res.Total))
		return res
	}

	switch {
	case !form.AgreedUponValue.IsZero():
		res.Total = utils.Round2(form.AgreedUponValue)
	case !form.Amortized.IsZero() || !form.DownPayment.IsZero() || !form.Depreciation.IsZero():
		res.Total = utils.Round2(utils.SumDecimals(
			form.Amortized,
			form.DownPayment,
			form.Depreciation,
			fairValue.Sub(salesPrice),
		))
	}

	res.TavtPercentage = utils.DecimalOrZero(form.TavtPercentage)
	res.TavtValue = utils.Round2(utils.Percent(res.TavtPercentage).Mul(res.Total))
	res.TavtDealerPenalty = utils.Round2(utils.Percent(utils.DecimalOrZero(form.TavtDealerPenaltyPercentage)).Mul(res.TavtValue))

	if len(schedule) > 0 {
		res.MillRate, res.ValoremSchedule = c.resolveValorem(ctx, ticket, fairValue, schedule)
	}
	return res
}

// resolveValorem attaches amounts to a copy of the schedule.
func (c CostCalculator) resolveValorem(
	ctx context.Context,
	ticket models.TicketContext,
	fairValue decimal.Decimal,
	schedule []models.ValoremScheduleEntry,
) (decimal.Decimal, []models.ValoremScheduleEntry) {
	buyer, _ := ValoremBuyer(ticket)
	millRate := decimal.Zero
	if ticket.StartDate != nil {
		millRate = MillRateFactor(c.Resolver.ResolveMilageRate(ctx, *ticket.StartDate, buyer.District, buyer.CountyID))
	}

	valorem := utils.Round2(fairValue.Mul(c.Rules.ValoremAssessmentRatio).Mul(millRate))

	out := make([]models.ValoremScheduleEntry, len(schedule))
	for i, e := range schedule {
		e.ValoremAmount = valorem
		e.PenaltyAmount = decimal.Zero
		if e.PenaltyPercent.IsPositive() {
			e.PenaltyAmount = utils.Round4(valorem.Mul(utils.Percent(e.PenaltyPercent)))
		}
		out[i] = e
	}
	return millRate, out
}

// fmvApplies: state transfers are taxed on the fair market value when it
// exceeds the stated sales price.
func fmvApplies(ticket models.TicketContext, salesPrice decimal.Decimal) bool {
	return ticket.IsStateTransfer &&
		ticket.HasTransactionCode(domain.TransactionStateTransfer) &&
		ticket.FmvPrice != nil &&
		ticket.FmvPrice.GreaterThan(salesPrice)
}

func otherFeeLabel(i int, fee models.OtherFee) string {
	name := strings.TrimSpace(fee.TaxableMaster.Name)
	if name == "" {
		return fmt.Sprintf("otherFee[%d]", i)
	}
	return fmt.Sprintf("otherFee[%d]:%s", i, name)
}
