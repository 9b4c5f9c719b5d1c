package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/naramarket/naramarket-mcp/internal/service"
)

const maxRequestBodySize = 1 << 20

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// An empty body leaves dst at its zero value before validation.
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON format: %v", service.ErrInvalidInput, err)
	}
	return service.Validate(dst)
}
