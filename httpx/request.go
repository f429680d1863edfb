package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-rentals/internal/apperrors"
)

const maxBodyBytes = 1 << 20

// IsJSONBody reports whether the request body is JSON.
func IsJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// Decode fills dst from a JSON body or, for form posts, from form values
// through the provided mapping function.
func Decode(w http.ResponseWriter, r *http.Request, dst any, fromForm func(get func(string) string)) error {
	if IsJSONBody(r) {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(dst); err != nil {
			return apperrors.Validation("Malformed JSON body", nil)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return apperrors.Validation("Malformed form body", nil)
	}
	fromForm(r.PostForm.Get)
	return nil
}

// PathID parses a positive integer path parameter.
func PathID(r *http.Request, name string) (uint, bool) {
	v, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
