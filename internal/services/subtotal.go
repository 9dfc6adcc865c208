package services

import (
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/shopspring/decimal"
)

// AggregateSubtotal rolls the computed amounts and the ticket fees into the
// final total. titleLatePenalty is the resolved late fee (zero when none).
func AggregateSubtotal(res models.CalculationResult, form models.TaxForm, titleLatePenalty decimal.Decimal, ticket models.TicketContext) models.Subtotal {
	var s models.Subtotal

	if !res.IsSales {
		s.TavtTotal = utils.Round2(res.TavtValue.Add(res.TavtDealerPenalty))
	} else {
		s.SalesTaxTotal = utils.Round2(res.SalesTaxValue)
	}
	if ticket.IsTitle {
		s.TitleTotal = utils.Round2(form.TitleFees.Add(titleLatePenalty))
	}
	if ticket.IsRegistration {
		s.RegTotal = utils.Round2(ticket.InitialTotalCost)
	}
	s.ServiceFee = utils.Round2(serviceFee(ticket))

	valorem := decimal.Zero
	for _, e := range res.ValoremSchedule {
		valorem = valorem.Add(e.ValoremAmount).Add(e.PenaltyAmount)
	}
	s.ValoremTotal = utils.Round2(valorem)

	s.FinalTotal = utils.Round2(utils.SumDecimals(
		s.TavtTotal,
		s.TitleTotal,
		s.RegTotal,
		s.SalesTaxTotal,
		s.ServiceFee,
		s.ValoremTotal,
	))
	return s
}

func serviceFee(ticket models.TicketContext) decimal.Decimal {
	if ticket.ServiceFeeOverride != nil {
		return *ticket.ServiceFeeOverride
	}
	return utils.DecimalOrZero(ticket.TransactionTypePrice)
}
