package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTaxRules_EmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadTaxRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTaxRules(), rules)
}

func TestLoadTaxRules_PartialOverride(t *testing.T) {
	path := writeTemp(t, "valorem_penalty_percent: 5\ntitle_late_after_days: 45\n")

	rules, err := LoadTaxRules(path)
	require.NoError(t, err)
	assert.True(t, rules.ValoremPenaltyPercent.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 45, rules.TitleLateAfterDays)
	assert.True(t, rules.ValoremAssessmentRatio.Equal(decimal.NewFromFloat(0.4)), "unset keys keep defaults")
	assert.Equal(t, 48, rules.ValoremWindowDays)
}

func TestLoadTaxRules_FileNotFound(t *testing.T) {
	_, err := LoadTaxRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestLoadTaxRules_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "valorem_penalty_percent: [1, 2\n")
	_, err := LoadTaxRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidateTaxRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TaxRules)
		wantErr string
	}{
		{"defaults", func(*TaxRules) {}, ""},
		{"penalty above 100", func(r *TaxRules) { r.ValoremPenaltyPercent = decimal.NewFromInt(101) }, "valorem penalty percent"},
		{"zero ratio", func(r *TaxRules) { r.ValoremAssessmentRatio = decimal.Zero }, "assessment ratio"},
		{"negative window", func(r *TaxRules) { r.ValoremWindowDays = -1 }, "window days"},
		{"negative title penalty", func(r *TaxRules) { r.TitleLatePenalty = decimal.NewFromInt(-1) }, "title late penalty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultTaxRules()
			tt.mutate(&rules)
			err := ValidateTaxRules(rules)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvDSN(t *testing.T) {
	env := Env{DBUser: "app", DBPassword: "secret", DBAddr: "db:3306", DBName: "title_office"}
	assert.Equal(t,
		"app:secret@tcp(db:3306)/title_office?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		env.DSN())
}

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RATE_CACHE_TTL", "not-a-duration")

	env := LoadEnv()
	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, env.CORSAllowedOrigins)
	assert.Equal(t, "10m0s", env.RateCacheTTL.String())
}
