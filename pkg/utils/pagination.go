package utils

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ClampPerPage keeps a requested page size inside [1, MaxPerPage], using
// DefaultPerPage when none was given.
func ClampPerPage(perPage int) int {
	switch {
	case perPage < 1:
		return DefaultPerPage
	case perPage > MaxPerPage:
		return MaxPerPage
	}
	return perPage
}

// CalculateOffset returns the row offset of a 1-based page.
func CalculateOffset(page, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * ClampPerPage(perPage)
}

func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
