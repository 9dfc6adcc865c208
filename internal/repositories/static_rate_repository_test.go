package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"titledesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRatesYAML = `
tavt_masters:
  - id: 1
    tag: AA
    rate: 6.6
    effective_date: 2019-01-01
  - id: 2
    tag: AA
    rate: 7
    effective_date: 2023-01-01
  - id: 3
    tag: AA
    rate: 8
    effective_date: 2030-01-01
  - id: 4
    tag: II
    rate: 3
    effective_date: 2019-01-01
business_state_changes:
  - county_id: 12
    rate: 5.5
milage_rates:
  - district: D1
    county_id: 3
    year: 2023
    mill_rate: "12.5"
`

func TestStaticRateRepository_EffectiveDate(t *testing.T) {
	repo, err := ParseStaticRates([]byte(sampleRatesYAML))
	require.NoError(t, err)
	ctx := context.Background()

	m, err := repo.GetTavtMaster(ctx, "AA", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.ID)
	assert.Equal(t, "7", m.Rate.String())

	m, err = repo.GetTavtMaster(ctx, "AA", time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)

	_, err = repo.GetTavtMaster(ctx, "AA", time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, domain.IsNotFound(err))
}

func TestStaticRateRepository_Lookups(t *testing.T) {
	repo, err := ParseStaticRates([]byte(sampleRatesYAML))
	require.NoError(t, err)
	ctx := context.Background()

	b, err := repo.GetBusinessStateChange(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "5.5", b.Rate.String())

	_, err = repo.GetBusinessStateChange(ctx, 1)
	assert.True(t, domain.IsNotFound(err))

	rate, ok, err := repo.GetMilageRate(ctx, "D1", 3, 2023)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "12.5", rate)

	_, ok, err = repo.GetMilageRate(ctx, "D2", 3, 2023)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadStaticRates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRatesYAML), 0o600))

	repo, err := LoadStaticRates(path)
	require.NoError(t, err)
	assert.Len(t, repo.Tables.TavtMasters, 4)

	_, err = LoadStaticRates(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read file")

	_, err = ParseStaticRates([]byte("tavt_masters: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse YAML")

	_, err = ParseStaticRates([]byte("tavt_masters:\n  - rate: 7\n"))
	assert.True(t, domain.IsValidation(err))
}
