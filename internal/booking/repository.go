package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reefdesk/reefdesk/internal/shared"
)

// Repository reads booking workflow rows. All methods are read-only.
type Repository interface {
	GetBooking(ctx context.Context, id int64) (*Booking, error)
	ListDives(ctx context.Context, bookingID int64) ([]BookingDive, error)
	ListEquipment(ctx context.Context, bookingID int64) ([]BookingEquipment, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	GetAgent(ctx context.Context, id int64) (*Agent, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed read repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	const query = `
		SELECT id, tenant_id, customer_id, agent_id, booking_date, start_date,
		       end_date, total_dives, status, dive_package_id
		FROM bookings
		WHERE id = $1
	`
	var b Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.TenantID, &b.CustomerID, &b.AgentID, &b.BookingDate,
		&b.StartDate, &b.EndDate, &b.TotalDives, &b.Status, &b.DivePackageID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListDives(ctx context.Context, bookingID int64) ([]BookingDive, error) {
	const query = `
		SELECT id, booking_id, dive_date, site_name, dive_no
		FROM booking_dives
		WHERE booking_id = $1
		ORDER BY dive_no, id
	`
	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dives []BookingDive
	for rows.Next() {
		var d BookingDive
		if err := rows.Scan(&d.ID, &d.BookingID, &d.DiveDate, &d.SiteName, &d.DiveNo); err != nil {
			return nil, err
		}
		dives = append(dives, d)
	}
	return dives, rows.Err()
}

func (r *repository) ListEquipment(ctx context.Context, bookingID int64) ([]BookingEquipment, error) {
	const query = `
		SELECT id, booking_id, equipment_id, description, daily_rate, days
		FROM booking_equipment
		WHERE booking_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BookingEquipment
	for rows.Next() {
		var e BookingEquipment
		if err := rows.Scan(&e.ID, &e.BookingID, &e.EquipmentID, &e.Description, &e.DailyRate, &e.Days); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *repository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	const query = `SELECT id, tenant_id, name, customer_type, email FROM customers WHERE id = $1`
	var c Customer
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.TenantID, &c.Name, &c.Type, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetAgent(ctx context.Context, id int64) (*Agent, error) {
	const query = `SELECT id, tenant_id, name, is_active FROM agents WHERE id = $1`
	var a Agent
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.TenantID, &a.Name, &a.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("agent %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}
