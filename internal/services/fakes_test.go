package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fakeRates struct {
	masters   map[string]decimal.Decimal
	business  map[int64]decimal.Decimal
	milage    map[int]string
	milageErr error
	calls     []string
}

func (f *fakeRates) GetTavtMaster(_ context.Context, tag string, _ time.Time) (models.TavtMaster, error) {
	f.calls = append(f.calls, "master:"+tag)
	rate, ok := f.masters[tag]
	if !ok {
		return models.TavtMaster{}, domain.NotFoundError{Resource: "tavt master " + tag}
	}
	return models.TavtMaster{Tag: tag, Rate: rate}, nil
}

func (f *fakeRates) GetBusinessStateChange(_ context.Context, countyID int64) (models.BusinessStateChange, error) {
	f.calls = append(f.calls, "business")
	rate, ok := f.business[countyID]
	if !ok {
		return models.BusinessStateChange{}, domain.NotFoundError{Resource: "business state change"}
	}
	return models.BusinessStateChange{CountyID: countyID, Rate: rate}, nil
}

func (f *fakeRates) GetMilageRate(_ context.Context, _ string, _ int64, year int) (string, bool, error) {
	f.calls = append(f.calls, "milage")
	if f.milageErr != nil {
		return "", false, f.milageErr
	}
	rate, ok := f.milage[year]
	return rate, ok, nil
}

type fakeTickets struct {
	tickets map[int64]models.TicketContext
}

func (f fakeTickets) GetContext(_ context.Context, id int64) (models.TicketContext, error) {
	t, ok := f.tickets[id]
	if !ok {
		return models.TicketContext{}, domain.NotFoundError{Resource: "ticket"}
	}
	return t, nil
}

type fakeForms struct {
	forms    map[int64]models.TaxForm
	masters  map[int64]models.TaxableMaster
	resetErr error
	nextID   int64
	resets   int
	saves    int
	results  []models.CalculationResult
}

func newFakeForms() *fakeForms {
	return &fakeForms{forms: map[int64]models.TaxForm{}, masters: map[int64]models.TaxableMaster{}, nextID: 100}
}

func (f *fakeForms) GetByTicketID(_ context.Context, ticketID int64) (*models.TaxForm, error) {
	form, ok := f.forms[ticketID]
	if !ok {
		return nil, nil
	}
	return &form, nil
}

func (f *fakeForms) Reset(_ context.Context, ticketID int64, isSales bool) (models.TaxForm, error) {
	if f.resetErr != nil {
		return models.TaxForm{}, f.resetErr
	}
	f.resets++
	f.nextID++
	fresh := models.FreshTaxForm(ticketID, isSales)
	fresh.ID = f.nextID
	f.forms[ticketID] = fresh
	return fresh, nil
}

func (f *fakeForms) Save(_ context.Context, form models.TaxForm, result models.CalculationResult) (models.TaxForm, error) {
	f.saves++
	if form.ID == 0 {
		f.nextID++
		form.ID = f.nextID
	}
	for i := range form.OtherFees {
		form.OtherFees[i].FormID = form.ID
	}
	f.forms[form.TicketID] = form
	f.results = append(f.results, result)
	return form, nil
}

func (f *fakeForms) TaxableMasters(_ context.Context, ids []int64) (map[int64]models.TaxableMaster, error) {
	out := map[int64]models.TaxableMaster{}
	for _, id := range ids {
		if m, ok := f.masters[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

type recordingNotifier struct {
	published []int64
}

func (r *recordingNotifier) Publish(ticketID int64, _ models.CalculationResult) {
	r.published = append(r.published, ticketID)
}

var errBoom = errors.New("boom")

func sortedYears(entries []models.ValoremScheduleEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Year)
	}
	sort.Ints(out)
	return out
}

// masters builds a tag -> rate map from alternating pairs.
func masters(pairs ...string) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = dec(pairs[i+1])
	}
	return out
}

func businessRates(countyID int64, rate string) map[int64]decimal.Decimal {
	return map[int64]decimal.Decimal{countyID: dec(rate)}
}
