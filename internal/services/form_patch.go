package services

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/shopspring/decimal"
)

var amountFields = []struct {
	key string
	set func(*models.TaxForm, decimal.Decimal)
}{
	{"salesPrice", func(f *models.TaxForm, v decimal.Decimal) { f.SalesPrice = v }},
	{"rebates", func(f *models.TaxForm, v decimal.Decimal) { f.Rebates = v }},
	{"discount", func(f *models.TaxForm, v decimal.Decimal) { f.Discount = v }},
	{"accessories", func(f *models.TaxForm, v decimal.Decimal) { f.Accessories = v }},
	{"administrationFees", func(f *models.TaxForm, v decimal.Decimal) { f.AdministrationFees = v }},
	{"dealerHandling", func(f *models.TaxForm, v decimal.Decimal) { f.DealerHandling = v }},
	{"deliveryFees", func(f *models.TaxForm, v decimal.Decimal) { f.DeliveryFees = v }},
	{"documentationFees", func(f *models.TaxForm, v decimal.Decimal) { f.DocumentationFees = v }},
	{"shippingHandlingFees", func(f *models.TaxForm, v decimal.Decimal) { f.ShippingHandlingFees = v }},
	{"agreedUponValue", func(f *models.TaxForm, v decimal.Decimal) { f.AgreedUponValue = v }},
	{"amortized", func(f *models.TaxForm, v decimal.Decimal) { f.Amortized = v }},
	{"depreciation", func(f *models.TaxForm, v decimal.Decimal) { f.Depreciation = v }},
	{"downPayment", func(f *models.TaxForm, v decimal.Decimal) { f.DownPayment = v }},
	{"salesTaxPercentage", func(f *models.TaxForm, v decimal.Decimal) { f.SalesTaxPercentage = v }},
	{"titleFees", func(f *models.TaxForm, v decimal.Decimal) { f.TitleFees = v }},
}

var optionalFields = []struct {
	key string
	set func(*models.TaxForm, *decimal.Decimal)
}{
	{"tavtPercentage", func(f *models.TaxForm, v *decimal.Decimal) { f.TavtPercentage = v }},
	{"tavtDealerPenaltyPercentage", func(f *models.TaxForm, v *decimal.Decimal) { f.TavtDealerPenaltyPercentage = v }},
	{"titleLatePenalty", func(f *models.TaxForm, v *decimal.Decimal) { f.TitleLatePenalty = v }},
}

// DecodePayload parses a form-save body. Numbers are kept as json.Number so
// amounts never pass through float64.
func DecodePayload(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.ValidationError{Field: "body", Msg: "empty payload"}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, domain.ValidationError{Field: "body", Msg: "payload is not a JSON object", Err: err}
	}
	return payload, nil
}

// DecodeComputeRequest parses a stateless compute body. The form takes the
// same lenient path as a save, so blank or malformed amounts read as zero.
func DecodeComputeRequest(raw []byte) (models.ComputeRequest, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.ComputeRequest{}, domain.ValidationError{Field: "body", Msg: "empty payload"}
	}
	var envelope struct {
		Form            json.RawMessage      `json:"form"`
		TicketContext   models.TicketContext `json:"ticketContext"`
		PreviousIsSales *bool                `json:"previousIsSales"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return models.ComputeRequest{}, domain.ValidationError{Field: "body", Msg: "invalid compute request", Err: err}
	}

	var payload map[string]any
	if len(bytes.TrimSpace(envelope.Form)) > 0 {
		p, err := DecodePayload(envelope.Form)
		if err != nil {
			return models.ComputeRequest{}, domain.ValidationError{Field: "form", Msg: "must be a JSON object", Err: err}
		}
		payload = p
	}

	ticketID := envelope.TicketContext.TicketID
	if id, ok := PayloadTicketID(payload); ok {
		ticketID = id
	}
	base := models.FreshTaxForm(ticketID, false)
	if v, ok := utils.LookupKey(payload, "id"); ok {
		if id := coerceOptionalID(v); id != nil {
			base.ID = *id
		}
	}

	form, err := ApplyTaxFormPatch(base, payload)
	if err != nil {
		return models.ComputeRequest{}, err
	}
	return models.ComputeRequest{
		Form:            form,
		TicketContext:   envelope.TicketContext,
		PreviousIsSales: envelope.PreviousIsSales,
	}, nil
}

// ApplyTaxFormPatch copies the keys present in payload onto base. Absent
// keys keep the base value. Amounts go through utils.CoerceNumeric.
func ApplyTaxFormPatch(base models.TaxForm, payload map[string]any) (models.TaxForm, error) {
	form := base
	form.OtherFees = append([]models.OtherFee{}, base.OtherFees...)

	if v, ok := utils.LookupKey(payload, "isSales"); ok {
		form.IsSales = coerceBool(v)
	}

	for _, f := range amountFields {
		if v, ok := utils.LookupKey(payload, f.key); ok {
			f.set(&form, utils.CoerceNumeric(v))
		}
	}
	for _, f := range optionalFields {
		if v, ok := utils.LookupKey(payload, f.key); ok {
			f.set(&form, utils.CoerceOptionalNumeric(v))
		}
	}

	if v, ok := utils.LookupKey(payload, "arrivalDate"); ok {
		t, err := coerceDate(v)
		if err != nil {
			return models.TaxForm{}, domain.ValidationError{Field: "arrivalDate", Msg: "invalid date", Err: err}
		}
		form.ArrivalDate = t
	}

	if v, ok := utils.LookupKey(payload, "taxExemptionId"); ok {
		form.TaxExemptionID = coerceOptionalID(v)
	}

	if v, ok := utils.LookupKey(payload, "otherFees"); ok {
		fees, err := parseOtherFees(v, form.ID)
		if err != nil {
			return models.TaxForm{}, err
		}
		form.OtherFees = fees
	}

	return form, nil
}

// PayloadIsSales returns the isSales flag carried by payload, falling back
// to current when the key is absent.
func PayloadIsSales(payload map[string]any, current bool) bool {
	if v, ok := utils.LookupKey(payload, "isSales"); ok {
		return coerceBool(v)
	}
	return current
}

// PayloadTicketID returns the ticketId carried by payload, if any.
func PayloadTicketID(payload map[string]any) (int64, bool) {
	v, ok := utils.LookupKey(payload, "ticketId")
	if !ok {
		return 0, false
	}
	id := coerceOptionalID(v)
	if id == nil {
		return 0, false
	}
	return *id, true
}

func parseOtherFees(v any, formID int64) ([]models.OtherFee, error) {
	if v == nil {
		return []models.OtherFee{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, domain.ValidationError{Field: "otherFees", Msg: "must be an array"}
	}

	fees := make([]models.OtherFee, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, domain.ValidationError{Field: "otherFees", Msg: "items must be objects"}
		}
		fee := models.OtherFee{FormID: formID}
		if id, ok := utils.LookupKey(m, "id"); ok {
			if p := coerceOptionalID(id); p != nil {
				fee.ID = *p
			}
		}
		price, _ := utils.LookupKey(m, "price")
		fee.Price = utils.CoerceNumeric(price)

		if master, ok := utils.LookupKey(m, "taxableMaster"); ok {
			if mm, ok := master.(map[string]any); ok {
				if id, ok := utils.LookupKey(mm, "id"); ok {
					if p := coerceOptionalID(id); p != nil {
						fee.TaxableMaster.ID = *p
					}
				}
				if name, ok := utils.LookupKey(mm, "name"); ok {
					fee.TaxableMaster.Name, _ = name.(string)
				}
				if taxable, ok := utils.LookupKey(mm, "isTaxable"); ok {
					fee.TaxableMaster.IsTaxable = coerceBool(taxable)
				}
			}
		}
		if id, ok := utils.LookupKey(m, "taxableMasterId"); ok {
			if p := coerceOptionalID(id); p != nil {
				fee.TaxableMaster.ID = *p
			}
		}
		fees = append(fees, fee)
	}
	return fees, nil
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case json.Number:
		return !utils.CoerceNumeric(b).IsZero()
	case float64:
		return b != 0
	default:
		return false
	}
}

func coerceDate(v any) (*time.Time, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(d) == "" {
			return nil, nil
		}
		t, err := utils.ParseFlexibleDate(d)
		if err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, domain.ValidationError{Field: "date", Msg: "must be a string"}
	}
}

func coerceOptionalID(v any) *int64 {
	d := utils.CoerceOptionalNumeric(v)
	if d == nil || !d.IsPositive() {
		return nil
	}
	id := d.IntPart()
	return &id
}
