package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"go.uber.org/zap"
)

// TicketReader supplies the read-only ticket snapshot.
type TicketReader interface {
	GetContext(ctx context.Context, ticketID int64) (models.TicketContext, error)
}

// FormStore persists tax forms. GetByTicketID returns nil when the ticket
// has no form yet.
type FormStore interface {
	GetByTicketID(ctx context.Context, ticketID int64) (*models.TaxForm, error)
	Reset(ctx context.Context, ticketID int64, isSales bool) (models.TaxForm, error)
	Save(ctx context.Context, form models.TaxForm, result models.CalculationResult) (models.TaxForm, error)
	TaxableMasters(ctx context.Context, ids []int64) (map[int64]models.TaxableMaster, error)
}

// Notifier fans results out to subscribed clients. Publish must not block.
type Notifier interface {
	Publish(ticketID int64, result models.CalculationResult)
}

// NopNotifier drops every result.
type NopNotifier struct{}

func (NopNotifier) Publish(int64, models.CalculationResult) {}

// TaxService orchestrates the tax engine around the stored form.
type TaxService struct {
	Tickets   TicketReader
	Forms     FormStore
	Rates     RateRepository
	Notifier  Notifier
	Rules     config.TaxRules
	RequestID string
	Now       func() time.Time
}

// SaveResult is what a form save hands back to the transport layer.
type SaveResult struct {
	Form   models.TaxForm           `json:"form"`
	Result models.CalculationResult `json:"result"`
	Reset  bool                     `json:"reset"`
}

func (s TaxService) resolver() RateResolver {
	return RateResolver{Rates: s.Rates, Now: s.Now, RequestID: s.RequestID}
}

func (s TaxService) notifier() Notifier {
	if s.Notifier == nil {
		return NopNotifier{}
	}
	return s.Notifier
}

// Compute runs the engine on a complete snapshot. It reads reference rates
// but never writes anything. req.PreviousIsSales is ignored here: the reset
// it implies is applied by Save before computing.
func (s TaxService) Compute(ctx context.Context, req models.ComputeRequest) (models.CalculationResult, error) {
	form := req.Form
	ticket := req.TicketContext

	penalties := ComputePenalties(ticket, form.ArrivalDate, s.Rules)

	if !form.IsSales && form.TavtPercentage == nil {
		pct, err := s.resolver().ResolveTavtPercentage(ctx, ticket)
		if err != nil {
			calculationErrorsTotal.WithLabelValues("rate").Inc()
			return models.CalculationResult{}, err
		}
		form.TavtPercentage = &pct
	}
	if form.TavtDealerPenaltyPercentage == nil {
		form.TavtDealerPenaltyPercentage = penalties.TavtDealerPenaltyPercent
	}
	titleLate := penalties.TitleLatePenalty
	if form.TitleLatePenalty != nil {
		titleLate = form.TitleLatePenalty
	}

	var schedule []models.ValoremScheduleEntry
	if !form.IsSales {
		if buyer, ok := ValoremBuyer(ticket); ok {
			schedule = BuildValoremSchedule(*ticket.StartDate, *buyer.Dob, *ticket.PurchaseDate, s.Rules)
		}
	}

	calc := CostCalculator{Resolver: s.resolver(), Rules: s.Rules}
	res := calc.Compute(ctx, form, ticket, form.OtherFees, ticket.TradeIns, schedule)
	res.Penalties = penalties
	res.Subtotal = AggregateSubtotal(res, form, utils.DecimalOrZero(titleLate), ticket)

	branch := domain.BranchTavt
	if res.IsSales {
		branch = domain.BranchSales
	}
	calculationsTotal.WithLabelValues(branch).Inc()
	return res, nil
}

// Save applies a form-save payload to a ticket. When the payload flips
// isSales relative to the stored form, the stored form is reset first and
// the payload is applied to the fresh form only.
func (s TaxService) Save(ctx context.Context, ticketID int64, raw []byte) (SaveResult, error) {
	if ticketID <= 0 {
		return SaveResult{}, domain.ValidationError{Field: "ticket_id", Msg: "invalid id"}
	}
	payload, err := DecodePayload(raw)
	if err != nil {
		return SaveResult{}, err
	}
	if id, ok := PayloadTicketID(payload); ok && id != ticketID {
		return SaveResult{}, domain.ConflictError{Resource: "tax form", Msg: fmt.Sprintf("payload ticketId %d does not match ticket %d", id, ticketID)}
	}

	ticket, err := s.Tickets.GetContext(ctx, ticketID)
	if err != nil {
		return SaveResult{}, err
	}
	stored, err := s.Forms.GetByTicketID(ctx, ticketID)
	if err != nil {
		return SaveResult{}, err
	}

	base := models.FreshTaxForm(ticketID, false)
	var previous *bool
	if stored != nil {
		base = *stored
		prev := stored.IsSales
		previous = &prev
	}
	isSales := PayloadIsSales(payload, base.IsSales)

	reset := needsReset(previous, isSales)
	if reset {
		base, err = s.resetForm(ctx, ticketID, isSales)
		if err != nil {
			return SaveResult{}, err
		}
	}

	out, err := s.applyPayload(ctx, base, payload, ticket, previous)
	if err != nil {
		return SaveResult{}, err
	}
	out.Reset = reset
	return out, nil
}

func needsReset(previous *bool, isSales bool) bool {
	return models.ComputeRequest{Form: models.TaxForm{IsSales: isSales}, PreviousIsSales: previous}.NeedsReset()
}

// resetForm discards the stored form and its other fees, leaving only
// {ticketId, isSales}. A failure aborts the save before anything is applied.
func (s TaxService) resetForm(ctx context.Context, ticketID int64, isSales bool) (models.TaxForm, error) {
	fresh, err := s.Forms.Reset(ctx, ticketID, isSales)
	if err != nil {
		calculationErrorsTotal.WithLabelValues("reset").Inc()
		utils.LogEvent(s.RequestID, "tax", "reset", "form reset failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return models.TaxForm{}, domain.RetryableError{Op: "reset tax form " + strconv.FormatInt(ticketID, 10), Err: err}
	}
	formResetsTotal.Inc()
	utils.LogEvent(s.RequestID, "tax", "reset", "form reset on mode toggle", zap.Int64("ticket_id", ticketID), zap.Bool("is_sales", isSales))
	return fresh, nil
}

// applyPayload patches base, computes, persists and notifies.
func (s TaxService) applyPayload(ctx context.Context, base models.TaxForm, payload map[string]any, ticket models.TicketContext, previous *bool) (SaveResult, error) {
	form, err := ApplyTaxFormPatch(base, payload)
	if err != nil {
		return SaveResult{}, err
	}
	form.TicketID = base.TicketID

	if form.OtherFees, err = s.attachTaxableMasters(ctx, form.OtherFees); err != nil {
		return SaveResult{}, err
	}

	result, err := s.Compute(ctx, models.ComputeRequest{Form: form, TicketContext: ticket, PreviousIsSales: previous})
	if err != nil {
		return SaveResult{}, err
	}

	saved, err := s.Forms.Save(ctx, form, result)
	if err != nil {
		calculationErrorsTotal.WithLabelValues("persist").Inc()
		return SaveResult{}, err
	}

	s.notifier().Publish(saved.TicketID, result)
	utils.LogEvent(s.RequestID, "tax", "save", "tax form saved",
		zap.Int64("ticket_id", saved.TicketID),
		zap.Bool("is_sales", saved.IsSales),
		zap.String("final_total", utils.FormatMoney(result.Subtotal.FinalTotal)))

	return SaveResult{Form: saved, Result: result}, nil
}

// attachTaxableMasters resolves the weak taxable-master references of the
// other fees. Unknown masters are treated as non-taxable.
func (s TaxService) attachTaxableMasters(ctx context.Context, fees []models.OtherFee) ([]models.OtherFee, error) {
	ids := []int64{}
	for _, f := range fees {
		if f.TaxableMaster.ID > 0 {
			ids = append(ids, f.TaxableMaster.ID)
		}
	}
	if len(ids) == 0 {
		return fees, nil
	}

	masters, err := s.Forms.TaxableMasters(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.OtherFee, len(fees))
	for i, f := range fees {
		if f.TaxableMaster.ID > 0 {
			m, ok := masters[f.TaxableMaster.ID]
			if !ok {
				m = models.TaxableMaster{ID: f.TaxableMaster.ID, Name: f.TaxableMaster.Name}
			}
			f.TaxableMaster = m
		}
		out[i] = f
	}
	return out, nil
}

// Get recomputes the result for the stored form.
func (s TaxService) Get(ctx context.Context, ticketID int64) (SaveResult, error) {
	ticket, err := s.Tickets.GetContext(ctx, ticketID)
	if err != nil {
		return SaveResult{}, err
	}
	stored, err := s.Forms.GetByTicketID(ctx, ticketID)
	if err != nil {
		return SaveResult{}, err
	}
	if stored == nil {
		return SaveResult{}, domain.NotFoundError{Resource: "tax form"}
	}

	result, err := s.Compute(ctx, models.ComputeRequest{Form: *stored, TicketContext: ticket})
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Form: *stored, Result: result}, nil
}

// Estimate previews the rates for a ticket without a stored form.
func (s TaxService) Estimate(ctx context.Context, ticketID int64) (models.Estimate, error) {
	ticket, err := s.Tickets.GetContext(ctx, ticketID)
	if err != nil {
		return models.Estimate{}, err
	}
	return s.EstimateFor(ctx, ticket)
}

// EstimateFor previews the rates for a ticket snapshot.
func (s TaxService) EstimateFor(ctx context.Context, ticket models.TicketContext) (models.Estimate, error) {
	penalties := ComputePenalties(ticket, nil, s.Rules)

	pct, err := s.resolver().ResolveTavtPercentage(ctx, ticket)
	if err != nil {
		return models.Estimate{}, err
	}
	valorem := false
	if buyer, ok := ValoremBuyer(ticket); ok {
		valorem = len(BuildValoremSchedule(*ticket.StartDate, *buyer.Dob, *ticket.PurchaseDate, s.Rules)) > 0
	}

	return models.Estimate{
		TitleLatePenalty:         penalties.TitleLatePenalty,
		TavtDealerPenaltyPercent: penalties.TavtDealerPenaltyPercent,
		TavtPercentage:           pct,
		ValoremApplies:           valorem,
	}, nil
}
