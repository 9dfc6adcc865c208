package services

import (
	"time"

	"titledesk/internal/config"
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/shopspring/decimal"
)

// ComputePenalties derives the title late penalty and the TAVT penalty
// percentage from how long after the reference date the ticket is processed.
// State transfers are measured from the arrival date, everything else from
// the purchase date.
func ComputePenalties(ticket models.TicketContext, arrivalDate *time.Time, rules config.TaxRules) models.PenaltyAssessment {
	out := models.PenaltyAssessment{ProcessingDate: ticket.StartDate}

	reference := ticket.PurchaseDate
	if ticket.IsStateTransfer && arrivalDate != nil {
		reference = arrivalDate
	}
	out.ReferenceDate = reference

	if ticket.StartDate == nil || reference == nil {
		return out
	}

	days := utils.DaysBetween(*ticket.StartDate, *reference)
	out.DaysDiff = days

	if days > rules.TitleLateAfterDays {
		fee := rules.TitleLatePenalty.Round(2)
		out.TitleLatePenalty = &fee
	}

	var pct *int64
	if ticket.IsStateTransfer {
		pct = casualPenaltyPercent(days)
	} else if seller, ok := ticket.PrimarySeller(); ok {
		if seller.IsDealership {
			pct = dealerPenaltyPercent(days)
		} else {
			pct = casualPenaltyPercent(days)
		}
	}
	if pct != nil {
		p := decimal.NewFromInt(*pct)
		out.TavtDealerPenaltyPercent = &p
	}
	return out
}

// casualPenaltyPercent is the schedule for state transfers and casual sales:
// 10 after 30 days, 11 after 60, then one more point per started 30 days.
func casualPenaltyPercent(days int) *int64 {
	var p int64
	switch {
	case days > 90:
		p = 11 + ceilDiv(days-90, 30)
	case days > 60:
		p = 11
	case days > 30:
		p = 10
	default:
		return nil
	}
	return &p
}

// dealerPenaltyPercent is the dealer schedule: 5 after 30 days, 10 after
// 60, then five more points per started 30 days.
func dealerPenaltyPercent(days int) *int64 {
	var p int64
	switch {
	case days > 90:
		p = 10 + ceilDiv(days-90, 30)*5
	case days > 60:
		p = 10
	case days > 30:
		p = 5
	default:
		return nil
	}
	return &p
}

// ceilDiv is ceil(a/b) for a > 0, b > 0.
func ceilDiv(a, b int) int64 {
	return int64((a + b - 1) / b)
}
