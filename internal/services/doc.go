// Package services talks to the equipment-lending REST backend.
//
// # Client
//
// [Client] exposes one method per backend endpoint, grouped by the [Service]
// (member) and [AdminService] interfaces. Login, register and reset-password
// go out on a plain HTTP client; every other call goes through an
// [oauth2.Transport] whose token source is the [session.Manager], which
// attaches "Authorization: Bearer <jwt>".
//
// # Error Handling
//
//   - 401 on an authenticated call clears the stored token and returns [shared.ErrSessionExpired]
//   - other non-2xx responses return [*APIError], which wraps [shared.ErrAPIRequest]
//     (and [shared.ErrNotFound] for 404). Its message is the backend's JSON
//     "message" field, falling back to "Request failed with status N"
//   - transport failures wrap [shared.ErrServiceUnavailable] or [shared.ErrTimeout]
//
// Successful responses without a JSON content type decode to zero values.
//
// # Raw Requests
//
// [APIService] sends arbitrary requests and returns the raw [APIResponse]; the
// CLI's "api" command uses it for endpoints the typed client does not cover.
package services
