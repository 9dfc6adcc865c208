package repositories

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"

	"gopkg.in/yaml.v3"
)

// RateTables is the YAML layout of a static rate file.
type RateTables struct {
	TavtMasters          []models.TavtMaster          `yaml:"tavt_masters"`
	BusinessStateChanges []models.BusinessStateChange `yaml:"business_state_changes"`
	MilageRates          []models.MilageRate          `yaml:"milage_rates"`
}

// StaticRateRepository serves rates from in-memory tables. It backs the CLI
// and offline runs where no database is available.
type StaticRateRepository struct {
	Tables RateTables
}

// LoadStaticRates reads rate tables from a YAML file.
func LoadStaticRates(filename string) (StaticRateRepository, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return StaticRateRepository{}, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ParseStaticRates(data)
}

// ParseStaticRates decodes YAML rate tables.
func ParseStaticRates(data []byte) (StaticRateRepository, error) {
	var tables RateTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return StaticRateRepository{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for i, m := range tables.TavtMasters {
		if strings.TrimSpace(m.Tag) == "" {
			return StaticRateRepository{}, domain.ValidationError{Field: fmt.Sprintf("tavt_masters[%d].tag", i), Msg: "required"}
		}
	}
	return StaticRateRepository{Tables: tables}, nil
}

func (s StaticRateRepository) GetTavtMaster(_ context.Context, tag string, asOf time.Time) (models.TavtMaster, error) {
	var best *models.TavtMaster
	for i := range s.Tables.TavtMasters {
		m := &s.Tables.TavtMasters[i]
		if !strings.EqualFold(m.Tag, tag) || m.EffectiveDate.After(asOf) {
			continue
		}
		if best == nil || m.EffectiveDate.After(best.EffectiveDate) {
			best = m
		}
	}
	if best == nil {
		return models.TavtMaster{}, domain.NotFoundError{Resource: "tavt master " + tag}
	}
	return *best, nil
}

func (s StaticRateRepository) GetBusinessStateChange(_ context.Context, countyID int64) (models.BusinessStateChange, error) {
	for _, b := range s.Tables.BusinessStateChanges {
		if b.CountyID == countyID {
			return b, nil
		}
	}
	return models.BusinessStateChange{}, domain.NotFoundError{Resource: fmt.Sprintf("business state change for county %d", countyID)}
}

func (s StaticRateRepository) GetMilageRate(_ context.Context, district string, countyID int64, year int) (string, bool, error) {
	for _, m := range s.Tables.MilageRates {
		if m.District == district && m.CountyID == countyID && m.Year == year {
			return m.MillRate, true, nil
		}
	}
	return "", false, nil
}
