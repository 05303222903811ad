package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("moonlight-tarot")
	require.NoError(t, err)
	assert.NotEqual(t, "moonlight-tarot", hash)
	assert.True(t, CheckPasswordHash("moonlight-tarot", hash))
	assert.False(t, CheckPasswordHash("sunlight-tarot", hash))
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email  string `validate:"required,email"`
		Rating int    `validate:"required,min=1,max=5"`
		Kind   string `validate:"oneof=CLIENT DIVINER"`
	}

	errs := ValidateStruct(payload{Email: "x@example.com", Rating: 3, Kind: "CLIENT"})
	assert.Nil(t, errs)

	errs = ValidateStruct(payload{Email: "nope", Rating: 9, Kind: "ADMIN"})
	require.Len(t, errs, 3)
	assert.Equal(t, "Invalid email format", errs["Email"])
	assert.Equal(t, "Maximum is 5", errs["Rating"])
	assert.Equal(t, "Must be one of: CLIENT, DIVINER", errs["Kind"])
	assert.Equal(t,
		"Email: Invalid email format; Kind: Must be one of: CLIENT, DIVINER; Rating: Maximum is 5",
		FormatValidationErrors(errs),
	)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("-4", 1))
	assert.Equal(t, 10, ParseInt("abc", 10))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	day, err := ParseDate("2026-11-03", tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 3, 0, 0, 0, 0, tokyo), day)

	_, err = ParseDate("03/11/2026", tokyo)
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 0, CalculateTotalPages(0, 10))
	assert.Equal(t, 3, CalculateTotalPages(21, 10))
	assert.Equal(t, 0, CalculateOffset(1, 10))
	assert.Equal(t, 20, CalculateOffset(3, 10))
	assert.Equal(t, 0, CalculateOffset(0, 10))

	assert.Equal(t, DefaultPerPage, ClampPerPage(0))
	assert.Equal(t, MaxPerPage, ClampPerPage(500))
	assert.Equal(t, 25, ClampPerPage(25))
	// an out-of-range page size still yields offsets on the clamped size
	assert.Equal(t, 2*MaxPerPage, CalculateOffset(3, 500))
}

func TestClock(t *testing.T) {
	m, err := ParseClock("17:20")
	require.NoError(t, err)
	assert.Equal(t, 1040, m)

	m, err = ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, 1440, m)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "24:00", FormatClock(1440))
}
