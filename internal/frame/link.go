package frame

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
)

// link is a live connection to one Frame.
type link struct {
	client *Client
	key    string
	device session.Device
	dev    bluetooth.Device
	tx     bluetooth.DeviceCharacteristic
	opts   Options

	// writeMu serializes writes together with the wait for their reply.
	writeMu sync.Mutex
	replies responder

	states watchers
}

var _ session.Link = (*link)(nil)

func (l *link) Device() session.Device { return l.device }

func (l *link) States(ctx context.Context) <-chan session.LinkState {
	return l.states.subscribe(ctx)
}

// onNotify handles RX notifications.
func (l *link) onNotify(data []byte) {
	logging.LogPayload("rx", data)
	text, ok := DecodeNotification(data)
	if !ok {
		return
	}
	l.replies.deliver(text)
}

func (l *link) write(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.LogPayload("tx", payload)
	if _, err := l.tx.WriteWithoutResponse(payload); err != nil {
		return fmt.Errorf("write to %s: %w", l.device, err)
	}
	return nil
}

func (l *link) SendBreak(ctx context.Context) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.write(ctx, []byte{BreakSignal})
}

func (l *link) SendReset(ctx context.Context) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.write(ctx, []byte{ResetSignal})
}

func (l *link) SendCommand(ctx context.Context, script string, awaitResponse bool) (string, error) {
	payload, err := EncodeCommand(script, l.opts.MaxPayload)
	if err != nil {
		return "", err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	var replies <-chan string
	if awaitResponse {
		replies = l.replies.expect()
		defer l.replies.cancel()
	}

	if err := l.write(ctx, payload); err != nil {
		return "", err
	}
	if !awaitResponse {
		return "", nil
	}

	timer := time.NewTimer(l.opts.ResponseTimeout)
	defer timer.Stop()

	select {
	case text := <-replies:
		return text, nil
	case <-timer.C:
		return "", fmt.Errorf("%w after %s", ErrResponseTimeout, l.opts.ResponseTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *link) Disconnect(ctx context.Context) error {
	l.client.unregister(l)

	l.states.close()

	if err := l.dev.Disconnect(); err != nil {
		logging.Debug("Disconnect failed", zap.String("device", l.device.String()), zap.Error(err))
		return fmt.Errorf("disconnect %s: %w", l.device, err)
	}
	return nil
}
