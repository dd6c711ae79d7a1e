package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/validation"
	"github.com/gorilla/mux"
)

const maxJSONBody = 1 << 20

// decodeBody validates the JSON body against schema and decodes it into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validation.Validator, schema string, dst any) error {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.Validationf("request body exceeds %d bytes", mbe.Limit)
		}
		return apperr.Validationf("read request body: %v", err)
	}

	if err := v.Validate(r.Context(), schema, b); err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return apperr.Validationf("decode request body: %v", err)
	}

	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf("invalid id %q", raw)
	}
	return id, nil
}
