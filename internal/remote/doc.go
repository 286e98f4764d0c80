// Package remote drives a session served by "framehello serve" from another
// process or machine.
//
// Requests are plain HTTP against the bridge's JSON endpoints; completion is
// observed on the bridge's WebSocket stream. Read requests are retried with
// exponential backoff on network failures and 5xx responses. Actions are
// retried only when the connection was refused, since any response means
// the session already saw the action.
//
// Errors are returned as *Error with a Type that separates network trouble
// from a session that rejected the action in its current state (HTTP 409).
package remote
