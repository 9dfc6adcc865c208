package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// TaxRules holds the statutory constants used by the calculation engine.
type TaxRules struct {
	// ValoremPenaltyPercent is applied to every overdue Valorem year.
	ValoremPenaltyPercent decimal.Decimal `yaml:"valorem_penalty_percent" json:"valoremPenaltyPercent"`
	// ValoremAssessmentRatio is the share of fair value that is taxed.
	ValoremAssessmentRatio decimal.Decimal `yaml:"valorem_assessment_ratio" json:"valoremAssessmentRatio"`
	// ValoremWindowDays: when fewer days than this remain before the
	// registration expires, every schedule year applies.
	ValoremWindowDays  int             `yaml:"valorem_window_days" json:"valoremWindowDays"`
	TitleLatePenalty   decimal.Decimal `yaml:"title_late_penalty" json:"titleLatePenalty"`
	TitleLateAfterDays int             `yaml:"title_late_after_days" json:"titleLateAfterDays"`
}

// DefaultTaxRules returns the built-in rule set.
func DefaultTaxRules() TaxRules {
	return TaxRules{
		ValoremPenaltyPercent:  decimal.NewFromInt(10),
		ValoremAssessmentRatio: decimal.NewFromFloat(0.4),
		ValoremWindowDays:      48,
		TitleLatePenalty:       decimal.NewFromInt(10),
		TitleLateAfterDays:     30,
	}
}

// LoadTaxRules reads a YAML rule file. Keys missing from the file keep their
// default values. An empty path returns the defaults.
func LoadTaxRules(filename string) (TaxRules, error) {
	rules := DefaultTaxRules()
	if filename == "" {
		return rules, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return TaxRules{}, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return TaxRules{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ValidateTaxRules(rules); err != nil {
		return TaxRules{}, fmt.Errorf("tax rules validation failed: %w", err)
	}
	return rules, nil
}

// ValidateTaxRules rejects rule sets that would produce nonsense amounts.
func ValidateTaxRules(rules TaxRules) error {
	if rules.ValoremPenaltyPercent.IsNegative() || rules.ValoremPenaltyPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("valorem penalty percent must be between 0 and 100")
	}
	if !rules.ValoremAssessmentRatio.IsPositive() || rules.ValoremAssessmentRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("valorem assessment ratio must be in (0, 1]")
	}
	if rules.ValoremWindowDays < 0 {
		return fmt.Errorf("valorem window days cannot be negative")
	}
	if rules.TitleLatePenalty.IsNegative() {
		return fmt.Errorf("title late penalty cannot be negative")
	}
	if rules.TitleLateAfterDays < 0 {
		return fmt.Errorf("title late threshold cannot be negative")
	}
	return nil
}
