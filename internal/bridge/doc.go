// Package bridge exposes a running session over HTTP and WebSocket so that
// other programs on the LAN can watch and drive it.
//
// # Endpoints
//
//	GET  /state           current snapshot as JSON
//	GET  /log?since=N     session log entries with seq >= N
//	POST /actions/{name}  connect, hello or finish
//	GET  /ws              WebSocket stream of snapshots and log lines
//
// The WebSocket first sends a {"type":"snapshot"} message carrying the state
// and the whole log, then one {"type":"update"} message per session change.
// Clients send {"action":"hello"} to press a button; a rejected action comes
// back as {"type":"error"}.
//
// Action gating is the session's: a request for an action that is not
// enabled in the current state is answered with 409 Conflict.
//
// # Discovery
//
// Unless disabled, the bridge advertises itself over mDNS as
// _framehello._tcp in the local. domain with TXT records for the version
// and the WebSocket path.
package bridge
