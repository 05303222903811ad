package usecase

import (
	"context"
	"testing"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReview_UpdatesRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addBooking(f.at(12, 10, 0), 20, entity.BookingStatusCompleted)
	second := f.addBooking(f.at(13, 10, 0), 20, entity.BookingStatusCompleted)

	_, err := f.svc.Review.CreateReview(ctx, f.clientUser, &request.CreateReviewRequest{BookingID: first.ID.String(), Rating: 5})
	require.NoError(t, err)
	_, err = f.svc.Review.CreateReview(ctx, f.clientUser, &request.CreateReviewRequest{BookingID: second.ID.String(), Rating: 4})
	require.NoError(t, err)

	d := f.store.diviners[f.diviner.ID]
	assert.Equal(t, "4.50", d.RatingAvg.StringFixed(2))
	assert.Equal(t, 2, d.ReviewCount)
}

func TestCreateReview_LocksDivinerBeforeRecompute(t *testing.T) {
	f := newFixture(t)
	b := f.addBooking(f.at(12, 10, 0), 20, entity.BookingStatusCompleted)

	_, err := f.svc.Review.CreateReview(context.Background(), f.clientUser, &request.CreateReviewRequest{BookingID: b.ID.String(), Rating: 4})
	require.NoError(t, err)

	assert.Equal(t, []string{"lock diviner", "create review", "read ratings"}, f.store.ops)
}

func TestCreateReview_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	completed := f.addBooking(f.at(12, 10, 0), 20, entity.BookingStatusCompleted)
	confirmed := f.addBooking(f.at(20, 10, 0), 20, entity.BookingStatusConfirmed)

	_, err := f.svc.Review.CreateReview(ctx, f.clientUser, &request.CreateReviewRequest{BookingID: confirmed.ID.String(), Rating: 5})
	assert.ErrorIs(t, err, ErrReviewNotAllowed)

	_, err = f.svc.Review.CreateReview(ctx, f.clientUser, &request.CreateReviewRequest{BookingID: completed.ID.String(), Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Review.CreateReview(ctx, f.divinerUser, &request.CreateReviewRequest{BookingID: completed.ID.String(), Rating: 5})
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.svc.Review.CreateReview(ctx, f.clientUser, &request.CreateReviewRequest{BookingID: completed.ID.String(), Rating: 3})
	require.NoError(t, err)
	_, err = f.svc.Review.CreateReview(ctx, f.clientUser, &request.CreateReviewRequest{BookingID: completed.ID.String(), Rating: 1})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestListDivinerReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.addBooking(f.at(12, 10, 0), 20, entity.BookingStatusCompleted)
	comment := "very accurate"
	_, err := f.svc.Review.CreateReview(ctx, f.clientUser, &request.CreateReviewRequest{BookingID: b.ID.String(), Rating: 5, Comment: &comment})
	require.NoError(t, err)

	resp, err := f.svc.Review.ListDivinerReviews(ctx, f.diviner.ID.String(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "very accurate", *resp.Data[0].Comment)
	assert.Equal(t, int64(1), resp.Pagination.Total)
}
