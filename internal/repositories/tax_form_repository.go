package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	intdb "titledesk/internal/db"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/shopspring/decimal"
)

// TaxFormRepository stores one tax form per ticket plus its other fees.
// Saved rows carry read-only projections of the last computed result.
type TaxFormRepository struct {
	DB *sql.DB
}

// amount columns in TaxForm field order; never NULL once written.
var taxFormAmountColumns = []string{
	"sales_price",
	"rebates",
	"discount",
	"accessories",
	"administration_fees",
	"dealer_handling",
	"delivery_fees",
	"documentation_fees",
	"shipping_handling_fees",
	"agreed_upon_value",
	"amortized",
	"depreciation",
	"down_payment",
	"sales_tax_percentage",
	"title_fees",
}

func amountFields(f *models.TaxForm) []*decimal.Decimal {
	return []*decimal.Decimal{
		&f.SalesPrice,
		&f.Rebates,
		&f.Discount,
		&f.Accessories,
		&f.AdministrationFees,
		&f.DealerHandling,
		&f.DeliveryFees,
		&f.DocumentationFees,
		&f.ShippingHandlingFees,
		&f.AgreedUponValue,
		&f.Amortized,
		&f.Depreciation,
		&f.DownPayment,
		&f.SalesTaxPercentage,
		&f.TitleFees,
	}
}

// writable columns for Save, in formArgs order.
func taxFormWriteColumns() []string {
	cols := []string{"ticket_id", "is_sales", "arrival_date"}
	cols = append(cols, taxFormAmountColumns...)
	return append(cols,
		"tavt_percentage",
		"tavt_dealer_penalty_percentage",
		"title_late_penalty",
		"tax_exemption_id",
		"total",
		"fair_value",
		"tavt_value",
		"tavt_dealer_penalty",
		"sales_tax_value",
		"final_total",
		"valorem_schedule",
		"breakdown",
		"result_version",
		"updated_at",
	)
}

func formArgs(form models.TaxForm, result models.CalculationResult) ([]any, error) {
	schedule, err := json.Marshal(result.ValoremSchedule)
	if err != nil {
		return nil, fmt.Errorf("encode valorem schedule: %w", err)
	}
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("encode breakdown: %w", err)
	}

	args := []any{form.TicketID, form.IsSales, intdb.NullTime(form.ArrivalDate)}
	for _, d := range amountFields(&form) {
		args = append(args, *d)
	}
	return append(args,
		intdb.NullDecimal(form.TavtPercentage),
		intdb.NullDecimal(form.TavtDealerPenaltyPercentage),
		intdb.NullDecimal(form.TitleLatePenalty),
		intdb.NullInt64(form.TaxExemptionID),
		result.Total,
		result.FairValue,
		result.TavtValue,
		result.TavtDealerPenalty,
		result.SalesTaxValue,
		result.Subtotal.FinalTotal,
		string(schedule),
		string(breakdown),
		result.Version,
		utils.NowUTC(),
	), nil
}

// GetByTicketID returns the stored form, or nil when the ticket has none.
func (r TaxFormRepository) GetByTicketID(ctx context.Context, ticketID int64) (*models.TaxForm, error) {
	db, err := conn(r.DB)
	if err != nil {
		return nil, err
	}

	selects := []string{"id", "ticket_id", "COALESCE(is_sales, 0)", "arrival_date"}
	for _, c := range taxFormAmountColumns {
		selects = append(selects, "COALESCE("+c+", 0)")
	}
	selects = append(selects, "tavt_percentage", "tavt_dealer_penalty_percentage", "title_late_penalty", "tax_exemption_id")

	var (
		f                            models.TaxForm
		arrival                      sql.NullTime
		tavtPct, penaltyPct, lateFee decimal.NullDecimal
		exemption                    sql.NullInt64
	)
	dest := []any{&f.ID, &f.TicketID, &f.IsSales, &arrival}
	for _, d := range amountFields(&f) {
		dest = append(dest, d)
	}
	dest = append(dest, &tavtPct, &penaltyPct, &lateFee, &exemption)

	err = db.QueryRowContext(ctx, `SELECT `+strings.Join(selects, ", ")+`
		FROM tax_forms
		WHERE ticket_id = ?
		ORDER BY id DESC
		LIMIT 1`, ticketID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query tax form: %w", err)
	}

	f.ArrivalDate = intdb.TimePtr(arrival)
	f.TavtPercentage = intdb.DecimalPtr(tavtPct)
	f.TavtDealerPenaltyPercentage = intdb.DecimalPtr(penaltyPct)
	f.TitleLatePenalty = intdb.DecimalPtr(lateFee)
	f.TaxExemptionID = intdb.Int64Ptr(exemption)

	if f.OtherFees, err = r.loadOtherFees(ctx, db, f.ID); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r TaxFormRepository) loadOtherFees(ctx context.Context, db *sql.DB, formID int64) ([]models.OtherFee, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT f.id,
		       f.form_id,
		       COALESCE(f.price, 0),
		       COALESCE(m.id, 0),
		       COALESCE(m.name, ''),
		       COALESCE(m.is_taxable, 0)
		FROM tax_form_other_fees f
		LEFT JOIN taxable_masters m ON m.id = f.taxable_master_id
		WHERE f.form_id = ?
		ORDER BY f.id`, formID)
	if err != nil {
		return nil, fmt.Errorf("query other fees: %w", err)
	}
	defer rows.Close()

	out := []models.OtherFee{}
	for rows.Next() {
		var fee models.OtherFee
		if err := rows.Scan(&fee.ID, &fee.FormID, &fee.Price, &fee.TaxableMaster.ID, &fee.TaxableMaster.Name, &fee.TaxableMaster.IsTaxable); err != nil {
			return nil, err
		}
		out = append(out, fee)
	}
	return out, rows.Err()
}

// Reset discards the ticket's form and other fees and stores a fresh
// {ticketId, isSales} form, all in one transaction.
func (r TaxFormRepository) Reset(ctx context.Context, ticketID int64, isSales bool) (models.TaxForm, error) {
	db, err := conn(r.DB)
	if err != nil {
		return models.TaxForm{}, err
	}

	fresh := models.FreshTaxForm(ticketID, isSales)
	err = intdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM tax_form_other_fees
			WHERE form_id IN (SELECT id FROM tax_forms WHERE ticket_id = ?)`, ticketID); err != nil {
			return fmt.Errorf("delete other fees: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tax_forms WHERE ticket_id = ?`, ticketID); err != nil {
			return fmt.Errorf("delete tax form: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tax_forms (ticket_id, is_sales, updated_at)
			VALUES (?, ?, ?)`, ticketID, isSales, utils.NowUTC())
		if err != nil {
			return fmt.Errorf("insert tax form: %w", err)
		}
		fresh.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return models.TaxForm{}, err
	}
	return fresh, nil
}

// Save upserts the form with its result projections and replaces its
// other fees. The returned form carries the assigned ids.
func (r TaxFormRepository) Save(ctx context.Context, form models.TaxForm, result models.CalculationResult) (models.TaxForm, error) {
	if form.TicketID <= 0 {
		return models.TaxForm{}, domain.ValidationError{Field: "ticket_id", Msg: "invalid id"}
	}
	db, err := conn(r.DB)
	if err != nil {
		return models.TaxForm{}, err
	}
	args, err := formArgs(form, result)
	if err != nil {
		return models.TaxForm{}, err
	}
	cols := taxFormWriteColumns()

	saved := form
	saved.OtherFees = make([]models.OtherFee, 0, len(form.OtherFees))
	err = intdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		if saved.ID == 0 {
			placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
			res, err := tx.ExecContext(ctx, `INSERT INTO tax_forms (`+strings.Join(cols, ",")+`) VALUES (`+placeholders+`)`, args...)
			if err != nil {
				return fmt.Errorf("insert tax form: %w", err)
			}
			if saved.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		} else {
			sets := make([]string, len(cols))
			for i, c := range cols {
				sets[i] = c + "=?"
			}
			if _, err := tx.ExecContext(ctx, `UPDATE tax_forms SET `+strings.Join(sets, ",")+` WHERE id=?`, append(args, saved.ID)...); err != nil {
				return fmt.Errorf("update tax form: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tax_form_other_fees WHERE form_id = ?`, saved.ID); err != nil {
			return fmt.Errorf("delete other fees: %w", err)
		}
		for _, fee := range form.OtherFees {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO tax_form_other_fees (form_id, price, taxable_master_id)
				VALUES (?, ?, NULLIF(?, 0))`, saved.ID, fee.Price, fee.TaxableMaster.ID)
			if err != nil {
				return fmt.Errorf("insert other fee: %w", err)
			}
			if fee.ID, err = res.LastInsertId(); err != nil {
				return err
			}
			fee.FormID = saved.ID
			saved.OtherFees = append(saved.OtherFees, fee)
		}
		return nil
	})
	if err != nil {
		return models.TaxForm{}, err
	}
	return saved, nil
}

// TaxableMasters returns the masters found among ids, keyed by id.
func (r TaxFormRepository) TaxableMasters(ctx context.Context, ids []int64) (map[int64]models.TaxableMaster, error) {
	out := map[int64]models.TaxableMaster{}
	if len(ids) == 0 {
		return out, nil
	}
	db, err := conn(r.DB)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(is_taxable, 0)
		FROM taxable_masters
		WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query taxable masters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.TaxableMaster
		if err := rows.Scan(&m.ID, &m.Name, &m.IsTaxable); err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}
