package repository

import (
	"testing"
	"time"

	"diviner-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldingOverlapQuery(t *testing.T) {
	divinerID := uuid.New()
	start := time.Date(2026, 10, 27, 10, 0, 0, 0, time.UTC)
	end := start.Add(20 * time.Minute)

	query, args, err := holdingOverlapQuery(divinerID, start, end, true).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM bookings")
	assert.Contains(t, query, "diviner_id = $1")
	assert.Contains(t, query, "status IN ($2,$3)")
	assert.Contains(t, query, "scheduled_at < $4")
	assert.Contains(t, query, "ends_at > $5")
	assert.Contains(t, query, "FOR UPDATE")
	assert.Equal(t, []any{
		divinerID,
		entity.BookingStatusPending,
		entity.BookingStatusConfirmed,
		end,
		start,
	}, args)

	query, _, err = holdingOverlapQuery(divinerID, start, end, false).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "FOR UPDATE")
}

func TestListBookingsQuery(t *testing.T) {
	clientID := uuid.New()

	list, count := listBookingsQuery(BookingFilter{
		ClientID: &clientID,
		Status:   entity.BookingStatusConfirmed,
		Limit:    10,
		Offset:   20,
	})

	query, args, err := list.ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE (client_id = $1 AND status = $2)")
	assert.Contains(t, query, "ORDER BY scheduled_at DESC LIMIT 10 OFFSET 20")
	assert.Equal(t, []any{clientID, entity.BookingStatusConfirmed}, args)

	query, args, err = count.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM bookings WHERE (client_id = $1 AND status = $2)", query)
	assert.Len(t, args, 2)
}

func TestListBookingsQueryWithoutFilters(t *testing.T) {
	_, count := listBookingsQuery(BookingFilter{Limit: 5})

	query, args, err := count.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM bookings", query)
	assert.Empty(t, args)
}
