package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diviner-booking/internal/data/entity"
	"diviner-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	// Upsert keeps one payment row per booking; p.ID is set to the stored row's ID.
	Upsert(ctx context.Context, payment *entity.Payment) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	// FindByBookingIDForUpdate locks the row for the current transaction.
	FindByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindByGatewayID(ctx context.Context, gatewayPaymentID string) (*entity.Payment, error)
	MarkSucceeded(ctx context.Context, paymentID uuid.UUID, platformFee, divinerNet int64, paidAt time.Time) error
	UpdateStatus(ctx context.Context, paymentID uuid.UUID, status entity.PaymentStatus) error
}

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, booking_id, amount, platform_fee, diviner_net, gateway_payment_id,
	status, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.PlatformFee, &p.DivinerNet,
		&p.GatewayPaymentID, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Upsert(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount, platform_fee, diviner_net, gateway_payment_id,
		                      status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (booking_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    platform_fee = EXCLUDED.platform_fee,
		    diviner_net = EXCLUDED.diviner_net,
		    gateway_payment_id = EXCLUDED.gateway_payment_id,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := database.Conn(ctx, r.db).QueryRow(ctx, query,
		p.ID,
		p.BookingID,
		p.Amount,
		p.PlatformFee,
		p.DivinerNet,
		p.GatewayPaymentID,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		r.log.Error("Failed to upsert payment",
			zap.Error(err),
			zap.String("booking_id", p.BookingID.String()),
		)
		return fmt.Errorf("upsert payment for booking %s: %w", p.BookingID, err)
	}

	return nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, "booking_id", bookingID.String(), bookingID)
}

func (r *paymentRepository) FindByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 FOR UPDATE`, "booking_id", bookingID.String(), bookingID)
}

func (r *paymentRepository) FindByGatewayID(ctx context.Context, gatewayPaymentID string) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE gateway_payment_id = $1`, "gateway_payment_id", gatewayPaymentID, gatewayPaymentID)
}

func (r *paymentRepository) findOne(ctx context.Context, query, key, value string, arg any) (*entity.Payment, error) {
	payment, err := scanPayment(database.Conn(ctx, r.db).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment", zap.Error(err), zap.String(key, value))
		return nil, fmt.Errorf("find payment by %s %s: %w", key, value, err)
	}
	return payment, nil
}

func (r *paymentRepository) MarkSucceeded(ctx context.Context, paymentID uuid.UUID, platformFee, divinerNet int64, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, platform_fee = $3, diviner_net = $4, paid_at = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		paymentID, entity.PaymentStatusSucceeded, platformFee, divinerNet, paidAt)
	if err != nil {
		r.log.Error("Failed to mark payment succeeded",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		return fmt.Errorf("mark payment %s succeeded: %w", paymentID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", paymentID)
	}

	return nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, paymentID uuid.UUID, status entity.PaymentStatus) error {
	query := `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, paymentID, status)
	if err != nil {
		r.log.Error("Failed to update payment status",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update payment %s status to %s: %w", paymentID, status, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", paymentID)
	}

	return nil
}
