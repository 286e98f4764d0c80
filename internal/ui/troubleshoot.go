package ui

import (
	"errors"

	"github.com/muurk/framehello/internal/remote"
	"github.com/muurk/framehello/internal/session"
	"github.com/muurk/framehello/internal/urls"
)

// Troubleshooting returns tips for a failed command, keyed on the session
// error kind. Unknown errors get generic advice.
func Troubleshooting(err error) []string {
	var rerr *remote.Error
	if errors.As(err, &rerr) {
		return remoteTips(rerr)
	}

	var serr *session.Error
	if !errors.As(err, &serr) {
		return []string{
			"Run with --log-level debug for the full transport log",
		}
	}

	switch serr.Kind {
	case session.ErrPermissionDenied:
		return []string{
			"Check that Bluetooth is switched on",
			"Grant this terminal Bluetooth access in system settings",
			"On Linux, make sure bluetoothd is running and your user may use it",
		}
	case session.ErrDiscoveryTimeout:
		return []string{
			"Wake the Frame by tapping it or putting it on the charger",
			"Move the Frame closer to this computer",
			"Disconnect it from the phone app, which holds the only link",
			"Try a longer scan: --timeout 15s",
			"Setup guide: " + urls.FrameSetup,
		}
	case session.ErrConnectionFailure:
		return []string{
			"Make sure no other app is connected to the Frame",
			"Run `framehello forget` if the remembered device changed",
			"Try: framehello scan",
		}
	case session.ErrUnexpectedLinkDrop:
		return []string{
			"The Frame went out of range or went to sleep",
			"Connect again; the device is remembered",
		}
	case session.ErrSendFailure, session.ErrInterruptSignalFailure, session.ErrResetSignalFailure:
		return []string{
			"The Frame may be busy running its own script",
			"Finish the session and connect again",
			"Run with --log-level debug to see the payloads sent",
			"Protocol reference: " + urls.BluetoothSpec,
		}
	case session.ErrDisconnectFailure:
		return []string{
			"The link may already be gone; the Frame releases it on its own",
		}
	default:
		return nil
	}
}

func remoteTips(err *remote.Error) []string {
	switch err.Type {
	case remote.ErrTypeConnectionRefused, remote.ErrTypeTimeout:
		return []string{
			"Check that `framehello serve` is running on the bridge host",
			"Verify the address and port (default 8787)",
			"Try: framehello bridges",
		}
	case remote.ErrTypeDNS:
		return []string{
			"Use the bridge's IP address instead of its hostname",
			"Try: framehello bridges",
		}
	case remote.ErrTypeRejected:
		return []string{
			"The session is busy or in the wrong state for this action",
			"Check the state first: framehello remote state",
		}
	case remote.ErrTypeUnavailable:
		return []string{
			"The bridge is shutting down; start it again",
		}
	case remote.ErrTypeParse:
		return []string{
			"The bridge may be running a different framehello version",
		}
	default:
		return []string{
			"Check your network connection",
			"Run the bridge with --log-level debug",
		}
	}
}
