package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query param and clamps it into
// [min, max]. A missing or blank param yields the fallback.
func ParseQueryInt(r *http.Request, name string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("query param %q must be an integer", name))
	}
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return value, nil
}
