package services

import (
	"strings"
	"time"

	"titledesk/internal/config"
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/shopspring/decimal"
)

// ValoremBuyer returns the buyer that drives the Valorem schedule when the
// ticket qualifies: a trailer with processing and purchase dates and a
// buyer carrying an expiration date and a district.
func ValoremBuyer(ticket models.TicketContext) (models.BuyerInfo, bool) {
	if !ticket.IsTrailer() || ticket.StartDate == nil || ticket.PurchaseDate == nil {
		return models.BuyerInfo{}, false
	}
	for _, b := range ticket.BuyerInfo {
		if b.Dob != nil && strings.TrimSpace(b.District) != "" {
			return b, true
		}
	}
	return models.BuyerInfo{}, false
}

// BuildValoremSchedule lays out which years owe Valorem tax and which carry
// the late penalty. No amounts are attached here.
func BuildValoremSchedule(startDate, expirationDate, purchaseDate time.Time, rules config.TaxRules) []models.ValoremScheduleEntry {
	diffInDays := utils.DaysBetween(expirationDate, startDate)
	appliesEveryYear := diffInDays < rules.ValoremWindowDays

	entries := []models.ValoremScheduleEntry{}
	for year := purchaseDate.Year(); year <= expirationDate.Year(); year++ {
		penalty := decimal.Zero
		if year < expirationDate.Year() || (year == expirationDate.Year() && diffInDays < 0) {
			penalty = rules.ValoremPenaltyPercent
		}
		if !appliesEveryYear && !penalty.IsPositive() {
			continue
		}
		entries = append(entries, models.ValoremScheduleEntry{
			Year:           year,
			Applies:        appliesEveryYear,
			PenaltyPercent: penalty,
		})
	}
	return entries
}
