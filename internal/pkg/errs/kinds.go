/*
Package errs provides the client's error taxonomy and classification helpers.

These kinds are the complete taxonomy surfaced to the UI layer. Every failure
in the client (REST, WebSocket, or token acquisition) collapses into one of
the four values below, which select the fallback view to render.
*/
package errs

import "net/http"

// Kind identifies one of the four error classes the UI layer understands.
type Kind string

const (
	// KindUnauthorized covers HTTP 401/403 responses and the case where no
	// bearer token could be obtained (signed out).
	KindUnauthorized Kind = "unauthorized"

	// KindNotFound covers HTTP 404 responses.
	KindNotFound Kind = "notFound"

	// KindServer covers HTTP 5xx responses.
	KindServer Kind = "serverError"

	// KindNetwork covers transport failures, unexpected statuses, and any
	// error thrown during fetch or decode.
	KindNetwork Kind = "networkError"
)

// kindMap stores the template Error corresponding to every kind.
// The Status recorded here is the canonical status for the kind; FromStatus
// overrides it with the exact status observed on the wire.
var kindMap = map[Kind]Error{
	KindUnauthorized: {Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "Please sign in to continue."},
	KindNotFound:     {Kind: KindNotFound, Status: http.StatusNotFound, Message: "We couldn't find what you were looking for."},
	KindServer:       {Kind: KindServer, Status: http.StatusInternalServerError, Message: "Something went wrong on our end. Please try again."},
	KindNetwork:      {Kind: KindNetwork, Status: 0, Message: "Connection problem. Check your network and try again."},
}

// Classify maps an HTTP status code onto the taxonomy.
// 2xx statuses are not errors and must not be passed here; they classify as
// KindNetwork to make the misuse visible rather than silent.
func Classify(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindNetwork
	}
}
