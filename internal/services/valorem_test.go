package services

import (
	"testing"
	"time"

	"titledesk/internal/config"
	"titledesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildValoremSchedule(t *testing.T) {
	rules := config.DefaultTaxRules()
	start := date(2024, 6, 1)

	tests := []struct {
		name       string
		expiration time.Time
		purchase   time.Time
		want       []models.ValoremScheduleEntry
	}{
		{
			name:       "inside window applies every year",
			expiration: date(2024, 7, 1),
			purchase:   date(2022, 3, 1),
			want: []models.ValoremScheduleEntry{
				{Year: 2022, Applies: true, PenaltyPercent: dec("10")},
				{Year: 2023, Applies: true, PenaltyPercent: dec("10")},
				{Year: 2024, Applies: true, PenaltyPercent: dec("0")},
			},
		},
		{
			name:       "outside window keeps only penalised years",
			expiration: date(2024, 12, 1),
			purchase:   date(2022, 3, 1),
			want: []models.ValoremScheduleEntry{
				{Year: 2022, Applies: false, PenaltyPercent: dec("10")},
				{Year: 2023, Applies: false, PenaltyPercent: dec("10")},
			},
		},
		{
			name:       "expired registration penalises the expiration year",
			expiration: date(2024, 5, 1),
			purchase:   date(2024, 1, 10),
			want: []models.ValoremScheduleEntry{
				{Year: 2024, Applies: true, PenaltyPercent: dec("10")},
			},
		},
		{
			name:       "nothing owed",
			expiration: date(2024, 12, 1),
			purchase:   date(2024, 2, 1),
			want:       []models.ValoremScheduleEntry{},
		},
		{
			name:       "purchase after expiration year",
			expiration: date(2023, 12, 1),
			purchase:   date(2024, 2, 1),
			want:       []models.ValoremScheduleEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildValoremSchedule(start, tt.expiration, tt.purchase, rules)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Year, got[i].Year)
				assert.Equal(t, tt.want[i].Applies, got[i].Applies)
				assert.True(t, tt.want[i].PenaltyPercent.Equal(got[i].PenaltyPercent), "year %d penalty %s", got[i].Year, got[i].PenaltyPercent)
				assert.True(t, got[i].ValoremAmount.IsZero(), "no money attached yet")
			}
		})
	}
}

func TestBuildValoremSchedule_WindowBoundary(t *testing.T) {
	rules := config.DefaultTaxRules()
	start := date(2024, 6, 1)

	at47 := BuildValoremSchedule(start, start.AddDate(0, 0, 47), date(2024, 1, 1), rules)
	require.Len(t, at47, 1)
	assert.True(t, at47[0].Applies)

	at48 := BuildValoremSchedule(start, start.AddDate(0, 0, 48), date(2024, 1, 1), rules)
	assert.Empty(t, at48, "48 days is outside the window")
}

func TestBuildValoremSchedule_Deterministic(t *testing.T) {
	rules := config.DefaultTaxRules()
	a := BuildValoremSchedule(date(2024, 6, 1), date(2024, 7, 1), date(2019, 3, 1), rules)
	b := BuildValoremSchedule(date(2024, 6, 1), date(2024, 7, 1), date(2019, 3, 1), rules)
	assert.Equal(t, a, b)
	assert.Equal(t, []int{2019, 2020, 2021, 2022, 2023, 2024}, sortedYears(a))
}

func TestValoremBuyer(t *testing.T) {
	base := models.TicketContext{
		StartDate:    datePtr(2024, 6, 1),
		PurchaseDate: datePtr(2023, 1, 1),
		VinInfo:      models.VinInfo{Type: "Trailer"},
		BuyerInfo: []models.BuyerInfo{
			{Type: "Individual", District: ""},
			{Type: "Individual", District: "D1", CountyID: 7, Dob: datePtr(2024, 7, 1)},
		},
	}

	buyer, ok := ValoremBuyer(base)
	require.True(t, ok)
	assert.Equal(t, "D1", buyer.District)

	notTrailer := base
	notTrailer.VinInfo.Type = "car"
	_, ok = ValoremBuyer(notTrailer)
	assert.False(t, ok)

	noStart := base
	noStart.StartDate = nil
	_, ok = ValoremBuyer(noStart)
	assert.False(t, ok)

	noExpiration := base
	noExpiration.BuyerInfo = []models.BuyerInfo{{District: "D1"}}
	_, ok = ValoremBuyer(noExpiration)
	assert.False(t, ok)
}
