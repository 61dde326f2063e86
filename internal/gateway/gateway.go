// Package gateway provides the typed surface over the backend budgeting API.
// One file per resource family; every function follows the same shape: build
// the endpoint, call the authenticated client with the resolved user ID, map
// non-success statuses to faults, decode the JSON payload.
//
// Collection endpoints arrive wrapped (e.g. {"accounts": [...]}) and are
// unwrapped here, defaulting to an empty slice when the field is absent.
// Delete endpoints are soft deletes on the backend side; nothing is held
// locally, so this layer only reports success or failure.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/helpmebudget/web/internal/fault"
)

// Caller issues authenticated backend requests. Implemented by
// *backend.Client.
type Caller interface {
	Do(ctx context.Context, method, endpoint string, body any, userID string) (*http.Response, error)
}

// failFromResponse maps a non-2xx response to a fault. A 404 becomes
// NotFound with the resource-specific message when one is given; anything
// else becomes Upstream carrying the backend's error field, or the fallback
// message when the body has none.
func failFromResponse(resp *http.Response, notFound, fallback string) error {
	if resp.StatusCode == http.StatusNotFound && notFound != "" {
		return fault.NotFound(notFound)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fault.Upstream(resp.StatusCode, body.Error)
	}
	return fault.Upstream(resp.StatusCode, fallback)
}

// decodeResource checks the response status and decodes the whole body into
// out. notFound may be empty for endpoints without a 404 case.
func decodeResource(resp *http.Response, notFound, fallback string, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failFromResponse(resp, notFound, fallback)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Transport("decoding backend response", err)
	}
	return nil
}

// checkNoContent verifies success for endpoints whose body is not used
// (deletes and rule updates).
func checkNoContent(resp *http.Response, notFound, fallback string) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failFromResponse(resp, notFound, fallback)
	}
	return nil
}
