package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"titledesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratesYAML = `
tavt_masters:
  - tag: AA
    rate: 7
    effective_date: 2020-01-01
milage_rates:
  - district: D1
    county_id: 3
    year: 2023
    mill_rate: "12.5"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestComputeCommand_TrailerValorem(t *testing.T) {
	dir := t.TempDir()
	rates := writeFile(t, dir, "rates.yaml", ratesYAML)
	req := writeFile(t, dir, "req.json", `{
		"form": {"salesPrice": "20000"},
		"ticketContext": {
			"ticketId": 5,
			"startDate": "2024-06-01T00:00:00Z",
			"purchaseDate": "2023-01-01T00:00:00Z",
			"vinInfo": {"type": "trailer"},
			"buyerInfo": [{"district": "D1", "countyId": 3, "dob": "2024-07-01T00:00:00Z"}]
		}
	}`)

	out, err := run(t, "", "compute", "--request", req, "--rates", rates)
	require.NoError(t, err)

	var res models.CalculationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "1400.00", res.TavtValue.StringFixed(2))
	require.NotEmpty(t, res.ValoremSchedule)
	for _, e := range res.ValoremSchedule {
		assert.Equal(t, "100.00", e.ValoremAmount.StringFixed(2))
	}
}

func TestComputeCommand_Stdin(t *testing.T) {
	out, err := run(t, `{"form": {"isSales": true, "salesPrice": 100, "salesTaxPercentage": 4}, "ticketContext": {}}`,
		"compute", "--request", "-")
	require.NoError(t, err)

	var res models.CalculationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "4.00", res.SalesTaxValue.StringFixed(2))
}

func TestComputeCommand_Errors(t *testing.T) {
	_, err := run(t, "", "compute")
	assert.Error(t, err, "--request is required")

	_, err = run(t, "", "compute", "--request", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read file")

	_, err = run(t, "{", "compute", "--request", "-")
	assert.ErrorContains(t, err, "failed to parse JSON")

	_, err = run(t, `{"form": {"salesPrice": 1}, "ticketContext": {}}`, "compute", "--request", "-")
	assert.ErrorContains(t, err, "tavt master", "no rate file means no TAVT rate")

	_, err = run(t, `{}`, "compute", "--request", "-", "--as-of", "June")
	assert.ErrorContains(t, err, "invalid --as-of")
}

func TestEstimateCommand(t *testing.T) {
	dir := t.TempDir()
	rates := writeFile(t, dir, "rates.yaml", ratesYAML)
	rules := writeFile(t, dir, "rules.yaml", "title_late_penalty: 25\n")
	ticket := writeFile(t, dir, "ticket.json", `{
		"startDate": "2024-03-01T00:00:00Z",
		"purchaseDate": "2024-01-01T00:00:00Z",
		"sellerInfo": [{"isDealership": true}]
	}`)

	out, err := run(t, "", "estimate", "--ticket", ticket, "--rates", rates, "--rules", rules)
	require.NoError(t, err)

	var est models.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, "7", est.TavtPercentage.String())
	require.NotNil(t, est.TitleLatePenalty)
	assert.Equal(t, "25.00", est.TitleLatePenalty.StringFixed(2))
	require.NotNil(t, est.TavtDealerPenaltyPercent)
	assert.Equal(t, "5", est.TavtDealerPenaltyPercent.String())
	assert.False(t, est.ValoremApplies)
}

func TestComputeCommand_MalformedAmountsReadAsZero(t *testing.T) {
	for _, price := range []string{`""`, `"abc"`} {
		out, err := run(t, `{"form": {"isSales": true, "salesPrice": `+price+`, "titleFees": "12", "salesTaxPercentage": 4}, "ticketContext": {}}`,
			"compute", "--request", "-")
		require.NoError(t, err, price)

		var res models.CalculationResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "0.00", res.Total.StringFixed(2), price)
		assert.Equal(t, "0.00", res.SalesTaxValue.StringFixed(2), price)
	}
}

func TestEstimateCommand_AsOfFillsMissingStartDate(t *testing.T) {
	dir := t.TempDir()
	rates := writeFile(t, dir, "rates.yaml", ratesYAML)
	ticket := writeFile(t, dir, "ticket.json", `{
		"purchaseDate": "2024-04-01T00:00:00Z",
		"sellerInfo": [{"isDealership": true}]
	}`)

	out, err := run(t, "", "estimate", "--ticket", ticket, "--rates", rates, "--as-of", "2024-06-01")
	require.NoError(t, err)

	var est models.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	require.NotNil(t, est.TitleLatePenalty)
	assert.Equal(t, "10.00", est.TitleLatePenalty.StringFixed(2))
	require.NotNil(t, est.TavtDealerPenaltyPercent)
	assert.Equal(t, "10", est.TavtDealerPenaltyPercent.String(), "61 days late")

	out, err = run(t, "", "estimate", "--ticket", ticket, "--rates", rates)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Nil(t, est.TitleLatePenalty, "no processing date, no penalty")
}

func TestComputeCommand_AsOfDrivesValorem(t *testing.T) {
	dir := t.TempDir()
	rates := writeFile(t, dir, "rates.yaml", ratesYAML)
	req := writeFile(t, dir, "req.json", `{
		"form": {"salesPrice": "20000"},
		"ticketContext": {
			"purchaseDate": "2023-01-01T00:00:00Z",
			"vinInfo": {"type": "trailer"},
			"buyerInfo": [{"district": "D1", "countyId": 3, "dob": "2024-07-01T00:00:00Z"}]
		}
	}`)

	out, err := run(t, "", "compute", "--request", req, "--rates", rates, "--as-of", "2024-06-01")
	require.NoError(t, err)

	var res models.CalculationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.ValoremSchedule, 2)
	assert.Equal(t, "100.00", res.ValoremSchedule[0].ValoremAmount.StringFixed(2))
}
