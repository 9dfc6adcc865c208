package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
)

// RateRepository reads the TAVT, business override and mileage rate tables.
type RateRepository struct {
	DB *sql.DB
}

// GetTavtMaster returns the latest row for tag effective on or before asOf.
func (r RateRepository) GetTavtMaster(ctx context.Context, tag string, asOf time.Time) (models.TavtMaster, error) {
	db, err := conn(r.DB)
	if err != nil {
		return models.TavtMaster{}, err
	}

	var m models.TavtMaster
	err = db.QueryRowContext(ctx, `
		SELECT id, tag, rate, effective_date
		FROM tavt_masters
		WHERE tag = ? AND effective_date <= ?
		ORDER BY effective_date DESC, id DESC
		LIMIT 1`, tag, asOf).Scan(&m.ID, &m.Tag, &m.Rate, &m.EffectiveDate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TavtMaster{}, domain.NotFoundError{Resource: "tavt master " + tag}
	}
	if err != nil {
		return models.TavtMaster{}, fmt.Errorf("query tavt master %s: %w", tag, err)
	}
	return m, nil
}

// GetBusinessStateChange returns the override rate for a county.
func (r RateRepository) GetBusinessStateChange(ctx context.Context, countyID int64) (models.BusinessStateChange, error) {
	db, err := conn(r.DB)
	if err != nil {
		return models.BusinessStateChange{}, err
	}

	var b models.BusinessStateChange
	err = db.QueryRowContext(ctx, `
		SELECT id, county_id, rate
		FROM business_state_changes
		WHERE county_id = ?
		ORDER BY id DESC
		LIMIT 1`, countyID).Scan(&b.ID, &b.CountyID, &b.Rate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BusinessStateChange{}, domain.NotFoundError{Resource: fmt.Sprintf("business state change for county %d", countyID)}
	}
	if err != nil {
		return models.BusinessStateChange{}, fmt.Errorf("query business state change: %w", err)
	}
	return b, nil
}

// GetMilageRate returns the raw mill rate; ok is false when no row matches.
func (r RateRepository) GetMilageRate(ctx context.Context, district string, countyID int64, year int) (string, bool, error) {
	db, err := conn(r.DB)
	if err != nil {
		return "", false, err
	}

	var rate sql.NullString
	err = db.QueryRowContext(ctx, `
		SELECT mill_rate
		FROM milage_rates
		WHERE district = ? AND county_id = ? AND year = ?
		LIMIT 1`, district, countyID, year).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query milage rate: %w", err)
	}
	return rate.String, rate.Valid, nil
}
