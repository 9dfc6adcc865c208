package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "titledesk/internal/db"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"

	"github.com/shopspring/decimal"
)

// TicketRepository assembles the read-only ticket snapshot the tax engine
// works from. It never writes.
type TicketRepository struct {
	DB *sql.DB
}

// GetContext loads the ticket with its sellers, buyers, vehicle and trade-ins.
func (r TicketRepository) GetContext(ctx context.Context, ticketID int64) (models.TicketContext, error) {
	if ticketID <= 0 {
		return models.TicketContext{}, domain.ValidationError{Field: "ticket_id", Msg: "invalid id"}
	}
	db, err := conn(r.DB)
	if err != nil {
		return models.TicketContext{}, err
	}

	t, err := r.loadTicket(ctx, db, ticketID)
	if err != nil {
		return models.TicketContext{}, err
	}
	if t.SellerInfo, err = r.loadSellers(ctx, db, ticketID); err != nil {
		return models.TicketContext{}, err
	}
	if t.BuyerInfo, err = r.loadBuyers(ctx, db, ticketID); err != nil {
		return models.TicketContext{}, err
	}
	if t.VinInfo, err = r.loadVin(ctx, db, ticketID); err != nil {
		return models.TicketContext{}, err
	}
	if t.TradeIns, err = r.loadTradeIns(ctx, db, ticketID); err != nil {
		return models.TicketContext{}, err
	}
	return t, nil
}

func (r TicketRepository) loadTicket(ctx context.Context, db *sql.DB, ticketID int64) (models.TicketContext, error) {
	var (
		t                   models.TicketContext
		start, purchase     sql.NullTime
		fmv, override, base decimal.NullDecimal
	)
	err := db.QueryRowContext(ctx, `
		SELECT t.id,
		       t.start_date,
		       t.purchase_date,
		       COALESCE(t.is_state_transfer, 0),
		       COALESCE(t.transaction_code, ''),
		       t.fmv_price,
		       COALESCE(t.initial_total_cost, 0),
		       COALESCE(t.is_title, 0),
		       COALESCE(t.is_registration, 0),
		       t.service_fee_override,
		       tt.price
		FROM tickets t
		LEFT JOIN transaction_types tt ON tt.id = t.transaction_type_id
		WHERE t.id = ?
		LIMIT 1`, ticketID).Scan(
		&t.TicketID,
		&start,
		&purchase,
		&t.IsStateTransfer,
		&t.TransactionCode,
		&fmv,
		&t.InitialTotalCost,
		&t.IsTitle,
		&t.IsRegistration,
		&override,
		&base,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TicketContext{}, domain.NotFoundError{Resource: "ticket"}
	}
	if err != nil {
		return models.TicketContext{}, fmt.Errorf("query ticket %d: %w", ticketID, err)
	}

	t.StartDate = intdb.TimePtr(start)
	t.PurchaseDate = intdb.TimePtr(purchase)
	t.FmvPrice = intdb.DecimalPtr(fmv)
	t.ServiceFeeOverride = intdb.DecimalPtr(override)
	t.TransactionTypePrice = intdb.DecimalPtr(base)
	return t, nil
}

func (r TicketRepository) loadSellers(ctx context.Context, db *sql.DB, ticketID int64) ([]models.SellerInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(is_dealership, 0)
		FROM ticket_sellers
		WHERE ticket_id = ?
		ORDER BY position, id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	out := []models.SellerInfo{}
	for rows.Next() {
		var s models.SellerInfo
		if err := rows.Scan(&s.IsDealership); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r TicketRepository) loadBuyers(ctx context.Context, db *sql.DB, ticketID int64) ([]models.BuyerInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(type, ''),
		       COALESCE(district, ''),
		       COALESCE(county_id, 0),
		       dob
		FROM ticket_buyers
		WHERE ticket_id = ?
		ORDER BY position, id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query buyers: %w", err)
	}
	defer rows.Close()

	out := []models.BuyerInfo{}
	for rows.Next() {
		var (
			b   models.BuyerInfo
			dob sql.NullTime
		)
		if err := rows.Scan(&b.Type, &b.District, &b.CountyID, &dob); err != nil {
			return nil, err
		}
		b.Dob = intdb.TimePtr(dob)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r TicketRepository) loadVin(ctx context.Context, db *sql.DB, ticketID int64) (models.VinInfo, error) {
	var v models.VinInfo
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(type, ''), COALESCE(year, 0)
		FROM ticket_vins
		WHERE ticket_id = ?
		ORDER BY id DESC
		LIMIT 1`, ticketID).Scan(&v.Type, &v.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VinInfo{}, nil
	}
	if err != nil {
		return models.VinInfo{}, fmt.Errorf("query vin: %w", err)
	}
	return v, nil
}

// loadTradeIns is optional: older schemas have no trade_ins table.
func (r TicketRepository) loadTradeIns(ctx context.Context, db *sql.DB, ticketID int64) ([]models.TradeIn, error) {
	out := []models.TradeIn{}
	if !intdb.HasTable(ctx, db, "trade_ins") {
		return out, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(trade_in_allowance, 0)
		FROM trade_ins
		WHERE ticket_id = ?
		ORDER BY id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query trade-ins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.TradeIn
		if err := rows.Scan(&t.TradeInAllowance); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
