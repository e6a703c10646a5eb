package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"repoviz/internal/errors"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// QueryParamInt extracts an integer query parameter with a default value
func QueryParamInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// QueryParamBool extracts a boolean query parameter with a default value
func QueryParamBool(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1" || val == "yes"
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return errors.New(errors.InvalidInput, "invalid JSON body", err)
	}
	return nil
}

// scanID returns the {id} path value, rejecting anything that is not a
// plain token.
func scanID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" || strings.ContainsAny(id, "/\\ ") {
		return "", errors.New(errors.InvalidInput, "invalid scan id", nil)
	}
	return id, nil
}
