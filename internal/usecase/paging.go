package usecase

import "net/http"

const (
	defaultLimit = 100
	maxLimit     = 100
)

// limit=0は既定値
func normalizePage(skip int, limit int) (int, int, error) {
	if skip < 0 {
		return 0, 0, NewHTTPError(http.StatusBadRequest, "invalid skip")
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 || limit > maxLimit {
		return 0, 0, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return skip, limit, nil
}
