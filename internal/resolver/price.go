package resolver

import (
	"diviner-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

// ResolvePrice picks the first-time price while the client has no
// completed booking with the service's diviner. A zero first-time price
// counts as unset.
func ResolvePrice(service entity.Service, completedBookings int) int64 {
	if completedBookings == 0 && service.FirstTimePrice != nil && *service.FirstTimePrice > 0 {
		return *service.FirstTimePrice
	}
	return service.Price
}

// SplitPayment returns the platform fee, floor(total * feeRate), and the
// diviner's remainder.
func SplitPayment(total int64, feeRate decimal.Decimal) (platformFee, divinerNet int64) {
	platformFee = decimal.NewFromInt(total).Mul(feeRate).Floor().IntPart()
	return platformFee, total - platformFee
}

// AverageRating is the mean of ratings rounded to two places, zero when empty.
func AverageRating(ratings []int) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(int64(len(ratings))), 2)
}
