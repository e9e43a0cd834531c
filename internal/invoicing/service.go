package invoicing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/commission"
	"github.com/reefdesk/reefdesk/internal/sequence"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// ErrPaymentNotAllowed rejects payments against refunded or already settled
// invoices.
var ErrPaymentNotAllowed = errors.New("invoice cannot accept payments")

type repository interface {
	Get(ctx context.Context, id int64) (Invoice, error)
	ListItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	ListByPeriod(ctx context.Context, tenantID int64, year int) ([]Invoice, error)
	WithTx(ctx context.Context, fn func(TxRepository) error) error
}

// termSource resolves an agent's commercial agreement. Backed by the
// commission repository in production.
type termSource interface {
	GetTerm(ctx context.Context, agentID int64) (commission.AgentCommercialTerm, error)
}

// bookingSource verifies the booking an invoice bills against.
type bookingSource interface {
	GetBooking(ctx context.Context, id int64) (*booking.Booking, error)
}

type Service struct {
	repo     repository
	terms    termSource
	bookings bookingSource
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo repository, terms termSource, bookings bookingSource, log *slog.Logger) *Service {
	return &Service{repo: repo, terms: terms, bookings: bookings, log: log, now: time.Now}
}

// Create issues an Advance or Full invoice for a booking. The sequence
// number, line items and agent commission are written in one transaction.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error) {
	return s.create(ctx, req, nil)
}

// CreateFinal issues the settlement invoice chained to an earlier Advance.
func (s *Service) CreateFinal(ctx context.Context, advanceID int64, items []CreateItemInput) (Invoice, error) {
	advance, err := s.repo.Get(ctx, advanceID)
	if err != nil {
		return Invoice{}, err
	}
	if advance.Type != TypeAdvance {
		return Invoice{}, fmt.Errorf("%w: invoice %s is %s, final invoices chain to an advance",
			shared.ErrConfiguration, advance.Number, advance.Type)
	}

	req := CreateInvoiceRequest{
		TenantID:  advance.TenantID,
		BookingID: advance.BookingID,
		AgentID:   advance.AgentID,
		Type:      TypeFinal,
		Items:     items,
	}
	return s.create(ctx, req, &advance.ID)
}

func (s *Service) create(ctx context.Context, req CreateInvoiceRequest, relatedID *int64) (Invoice, error) {
	b, err := s.bookings.GetBooking(ctx, req.BookingID)
	if err != nil {
		return Invoice{}, err
	}
	if b.TenantID != req.TenantID {
		return Invoice{}, fmt.Errorf("%w: booking %d", shared.ErrNotFound, req.BookingID)
	}
	// An invoice without an explicit agent inherits the booking's agent.
	if req.AgentID == nil {
		req.AgentID = b.AgentID
	}

	var term *commission.AgentCommercialTerm
	if req.AgentID != nil {
		t, err := s.terms.GetTerm(ctx, *req.AgentID)
		if err != nil {
			return Invoice{}, err
		}
		term = &t
	}

	items := make([]InvoiceItem, 0, len(req.Items))
	var total float64
	for _, in := range req.Items {
		item := NewItem(in.Description, in.Quantity, in.UnitPrice)
		item.IsEquipment = in.IsEquipment
		item.BookingDiveID = in.BookingDiveID
		item.EquipmentID = in.EquipmentID
		item.PriceListItemID = in.PriceListItemID
		items = append(items, item)
		total += item.Total
	}
	total = round2(total)

	issuedAt := s.now()
	var out Invoice
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		if req.Type == TypeAdvance {
			exists, err := tx.AdvanceExists(ctx, req.BookingID)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: booking %d", shared.ErrDuplicateAdvanceInvoice, req.BookingID)
			}
		}

		number, err := tx.NextNumber(ctx, req.TenantID, sequence.SchemeInvoice, issuedAt.Year())
		if err != nil {
			return err
		}

		inv, err := tx.InsertInvoice(ctx, Invoice{
			TenantID:         req.TenantID,
			Number:           number,
			BookingID:        req.BookingID,
			AgentID:          req.AgentID,
			Type:             req.Type,
			Status:           StatusDraft,
			RelatedInvoiceID: relatedID,
			Total:            total,
			IssuedAt:         issuedAt,
		})
		if err != nil {
			return err
		}

		for i := range items {
			items[i].InvoiceID = inv.ID
			saved, err := tx.InsertItem(ctx, items[i])
			if err != nil {
				return err
			}
			items[i] = saved
		}

		if term != nil {
			amount, err := commission.Calculate(commissionItems(items), *term)
			if err != nil {
				return err
			}
			if _, err := tx.Commissions().Upsert(ctx, commission.AgentCommission{
				Reference: commission.Reference(inv.ID, *req.AgentID),
				InvoiceID: inv.ID,
				AgentID:   *req.AgentID,
				Amount:    amount,
				Status:    commission.StatusPending,
			}); err != nil {
				return err
			}
		}

		out = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}

	s.log.InfoContext(ctx, "invoice issued",
		slog.String("number", out.Number),
		slog.String("type", string(out.Type)),
		slog.Int64("booking_id", out.BookingID),
		slog.Float64("total", out.Total),
	)
	return out, nil
}

func commissionItems(items []InvoiceItem) []commission.Item {
	out := make([]commission.Item, 0, len(items))
	for _, it := range items {
		out = append(out, commission.Item{
			Total:           it.Total,
			IsEquipment:     it.IsEquipment,
			BookingDiveID:   it.BookingDiveID,
			EquipmentID:     it.EquipmentID,
			PriceListItemID: it.PriceListItemID,
		})
	}
	return out
}

// AddPayment records a payment and moves the invoice along the status
// ladder. The invoice row is locked for the duration so a concurrent
// payment cannot double-settle it.
func (s *Service) AddPayment(ctx context.Context, invoiceID int64, req AddPaymentRequest) (Reconciliation, error) {
	var rec Reconciliation
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}

		payments, err := tx.ListPayments(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !Reconcile(inv, payments).CanAddPayment {
			return fmt.Errorf("%w: invoice %s is %s", ErrPaymentNotAllowed, inv.Number, inv.Status)
		}

		p, err := tx.InsertPayment(ctx, Payment{
			InvoiceID: invoiceID,
			Amount:    req.Amount,
			Method:    req.Method,
			PaidAt:    s.now(),
		})
		if err != nil {
			return err
		}

		rec = Reconcile(inv, append(payments, p))
		return tx.UpdateStatus(ctx, invoiceID, StatusFor(inv.Status, rec))
	})
	if err != nil {
		return Reconciliation{}, err
	}
	return rec, nil
}

// Refund marks the invoice refunded. Refunded is terminal and blocks
// further payments.
func (s *Service) Refund(ctx context.Context, invoiceID int64) error {
	return s.repo.WithTx(ctx, func(tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, invoiceID); err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, invoiceID, StatusRefunded)
	})
}

// Reconcile reports the invoice's current settlement state.
func (s *Service) Reconcile(ctx context.Context, invoiceID int64) (Reconciliation, error) {
	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return Reconciliation{}, err
	}
	payments, err := s.repo.ListPayments(ctx, invoiceID)
	if err != nil {
		return Reconciliation{}, err
	}
	return Reconcile(inv, payments), nil
}

func (s *Service) Get(ctx context.Context, invoiceID int64) (Invoice, error) {
	return s.repo.Get(ctx, invoiceID)
}

// Export streams a tenant's invoices for one year, with balances, as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer, tenantID int64, year int) error {
	invoices, err := s.repo.ListByPeriod(ctx, tenantID, year)
	if err != nil {
		return err
	}
	rows := make([]ExportRow, 0, len(invoices))
	for _, inv := range invoices {
		payments, err := s.repo.ListPayments(ctx, inv.ID)
		if err != nil {
			return err
		}
		rows = append(rows, ExportRow{Invoice: inv, Reconciliation: Reconcile(inv, payments)})
	}
	return WriteInvoiceCSV(w, rows)
}
