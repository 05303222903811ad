package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diviner-booking/internal/data/entity"
	"diviner-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingFilter narrows List. Nil IDs and an empty status are ignored.
type BookingFilter struct {
	ClientID  *uuid.UUID
	DivinerID *uuid.UUID
	Status    entity.BookingStatus
	Limit     int
	Offset    int
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]*entity.Booking, int64, error)

	// FindHoldingOverlap returns the diviner's PENDING/CONFIRMED bookings
	// overlapping [start, end). forUpdate locks them for the current transaction.
	FindHoldingOverlap(ctx context.Context, divinerID uuid.UUID, start, end time.Time, forUpdate bool) ([]entity.Booking, error)
	CountCompleted(ctx context.Context, clientID, divinerID uuid.UUID) (int, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error
	Cancel(ctx context.Context, bookingID uuid.UUID, reason string, at time.Time) error
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

var bookingColumns = []string{
	"id", "client_id", "diviner_id", "service_id", "scheduled_at", "ends_at", "duration_minutes",
	"total_amount", "pre_question", "status", "cancel_reason", "cancelled_at", "created_at", "updated_at",
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.DivinerID,
		&b.ServiceID,
		&b.ScheduledAt,
		&b.EndsAt,
		&b.DurationMinutes,
		&b.TotalAmount,
		&b.PreQuestion,
		&b.Status,
		&b.CancelReason,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query, args, err := psql.Insert("bookings").
		Columns(bookingColumns...).
		Values(b.ID, b.ClientID, b.DivinerID, b.ServiceID, b.ScheduledAt, b.EndsAt, b.DurationMinutes,
			b.TotalAmount, b.PreQuestion, b.Status, b.CancelReason, b.CancelledAt, b.CreatedAt, b.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build booking insert: %w", err)
	}

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, args...); err != nil {
		// the exclusion constraint firing is an expected outcome under contention
		if database.IsExclusionViolation(err) {
			r.log.Warn("Booking overlaps an existing hold",
				zap.String("diviner_id", b.DivinerID.String()),
				zap.Time("scheduled_at", b.ScheduledAt),
			)
		} else {
			r.log.Error("Failed to create booking",
				zap.Error(err),
				zap.String("booking_id", b.ID.String()),
				zap.String("client_id", b.ClientID.String()),
			)
		}
		return fmt.Errorf("create booking %s: %w", b.ID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query, args, err := psql.Select(bookingColumns...).From("bookings").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booking select: %w", err)
	}

	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func listBookingsQuery(filter BookingFilter) (sq.SelectBuilder, sq.SelectBuilder) {
	// uuid.UUID is an array, so IDs go through Expr rather than sq.Eq
	where := sq.And{}
	if filter.ClientID != nil {
		where = append(where, sq.Expr("client_id = ?", *filter.ClientID))
	}
	if filter.DivinerID != nil {
		where = append(where, sq.Expr("diviner_id = ?", *filter.DivinerID))
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}

	list := psql.Select(bookingColumns...).From("bookings").
		OrderBy("scheduled_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))
	count := psql.Select("COUNT(*)").From("bookings")
	if len(where) > 0 {
		list = list.Where(where)
		count = count.Where(where)
	}
	return list, count
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]*entity.Booking, int64, error) {
	listQ, countQ := listBookingsQuery(filter)
	conn := database.Conn(ctx, r.db)

	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build booking count: %w", err)
	}
	var total int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query, args, err = listQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build booking list: %w", err)
	}
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list bookings",
			zap.Error(err),
			zap.Int("limit", filter.Limit),
			zap.Int("offset", filter.Offset),
		)
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, 0, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, total, rows.Err()
}

func holdingOverlapQuery(divinerID uuid.UUID, start, end time.Time, forUpdate bool) sq.SelectBuilder {
	q := psql.Select(bookingColumns...).From("bookings").
		Where("diviner_id = ?", divinerID).
		Where(sq.Eq{"status": []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusConfirmed}}).
		Where(sq.Lt{"scheduled_at": end}).
		Where(sq.Gt{"ends_at": start}).
		OrderBy("scheduled_at")
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *bookingRepository) FindHoldingOverlap(ctx context.Context, divinerID uuid.UUID, start, end time.Time, forUpdate bool) ([]entity.Booking, error) {
	query, args, err := holdingOverlapQuery(divinerID, start, end, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlap query: %w", err)
	}

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find overlapping bookings",
			zap.Error(err),
			zap.String("diviner_id", divinerID.String()),
		)
		return nil, fmt.Errorf("find overlapping bookings for diviner %s: %w", divinerID, err)
	}
	defer rows.Close()

	var bookings []entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, *b)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) CountCompleted(ctx context.Context, clientID, divinerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE client_id = $1 AND diviner_id = $2 AND status = $3`

	var count int
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, clientID, divinerID, entity.BookingStatusCompleted).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count completed bookings",
			zap.Error(err),
			zap.String("client_id", clientID.String()),
			zap.String("diviner_id", divinerID.String()),
		)
		return 0, fmt.Errorf("count completed bookings: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID, status)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID, status, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID)
	}

	return nil
}

func (r *bookingRepository) Cancel(ctx context.Context, bookingID uuid.UUID, reason string, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = $2, cancel_reason = $3, cancelled_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID, entity.BookingStatusCancelled, reason, at)
	if err != nil {
		r.log.Error("Failed to cancel booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID)
	}

	return nil
}
