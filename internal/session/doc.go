// Package session implements the lifecycle of one host-to-Frame session.
//
// A Session moves through five states:
//
//	Disconnected -> Scanning -> Connecting -> Ready <-> Running
//
// and back to Disconnected on finish, handshake failure, discovery timeout
// or an unexpected link drop. All mutations happen on a single goroutine
// owned by the Session; transport calls run on worker goroutines that report
// back through the same event channel, so callers never need locks.
//
// # Actions
//
// Three actions are exposed, each gated by the current state:
//
//	s.Connect()  // Disconnected
//	s.SayHello() // Ready
//	s.Finish()   // Ready
//
// An action that is not enabled returns ErrActionNotAllowed. Accepted
// actions return immediately; their outcome shows up in State() and Log().
//
// # Observing
//
// Presentation layers call Subscribe and re-read Snapshot or LogSince on
// every Update. The log is append-only and never reordered.
//
// # Transport
//
// The BLE work itself is delegated to a Transport. internal/frame provides
// the Bluetooth implementation and an in-memory simulator.
package session
