package response

import (
	"testing"

	"diviner-booking/internal/dto/request"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedResponse(t *testing.T) {
	req := request.PaginatedRequest{Page: 3, PerPage: 0}
	assert.Equal(t, 10, req.Limit())
	assert.Equal(t, 20, req.Offset())

	resp := NewPaginatedResponse([]string{"a"}, req.Page, req.Limit(), 21)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, int64(21), resp.Pagination.Total)

	empty := NewPaginatedResponse([]string{}, 1, 10, 0)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
}
