package services

import (
	"context"
	"strings"
	"time"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateRepository is the read-only reference data the engine looks up.
// Master lookups return domain.NotFoundError when the row is absent;
// a missing mileage record is reported with ok=false.
type RateRepository interface {
	GetTavtMaster(ctx context.Context, tag string, asOf time.Time) (models.TavtMaster, error)
	GetBusinessStateChange(ctx context.Context, countyID int64) (models.BusinessStateChange, error)
	GetMilageRate(ctx context.Context, district string, countyID int64, year int) (millRate string, ok bool, err error)
}

// RateResolver picks the TAVT percentage and Valorem mill rate for a ticket.
type RateResolver struct {
	Rates     RateRepository
	Now       func() time.Time
	RequestID string
}

func (r RateResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return utils.NowUTC()
}

// ResolveTavtPercentage returns the TAVT rate for the ticket. State
// transfers use the business county override or the individual master
// row; everything else uses the default master row effective at the
// processing date.
func (r RateResolver) ResolveTavtPercentage(ctx context.Context, ticket models.TicketContext) (decimal.Decimal, error) {
	asOf := r.now()
	if ticket.StartDate != nil {
		asOf = *ticket.StartDate
	}

	if ticket.HasTransactionCode(domain.TransactionStateTransfer) {
		if buyer, ok := ticket.PrimaryBuyer(); ok {
			switch {
			case strings.EqualFold(buyer.Type, domain.BuyerBusiness):
				row, err := r.Rates.GetBusinessStateChange(ctx, buyer.CountyID)
				if err != nil {
					return decimal.Zero, err
				}
				return row.Rate, nil
			case strings.EqualFold(buyer.Type, domain.BuyerIndividual):
				row, err := r.Rates.GetTavtMaster(ctx, domain.TavtTagIndividual, asOf)
				if err != nil {
					return decimal.Zero, err
				}
				return row.Rate, nil
			}
		}
	}

	row, err := r.Rates.GetTavtMaster(ctx, domain.TavtTagDefault, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return row.Rate, nil
}

// ResolveMilageRate returns the raw per-mille rate for the year before the
// processing date. Missing records and lookup failures both yield "0".
func (r RateResolver) ResolveMilageRate(ctx context.Context, startDate time.Time, district string, countyID int64) string {
	year := startDate.Year() - 1
	rate, ok, err := r.Rates.GetMilageRate(ctx, district, countyID, year)
	if err != nil {
		utils.LogEvent(r.RequestID, "tax", "milage_rate", "lookup failed, using 0",
			zap.String("district", district), zap.Int64("county_id", countyID), zap.Int("year", year), zap.Error(err))
		return "0"
	}
	if !ok || strings.TrimSpace(rate) == "" {
		return "0"
	}
	return rate
}

// MillRateFactor converts a raw mill rate into a multiplier (12.5 -> 0.0125).
func MillRateFactor(raw string) decimal.Decimal {
	return utils.PerMille(utils.CoerceNumeric(raw))
}
