package progress

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrConnect is returned when Watch cannot reach the server.
var ErrConnect = errors.New("connecting to progress server")

// Handlers receives decoded events. Either field may be nil.
type Handlers struct {
	OnTransition func(Message)
	OnFinished   func(Summary)
}

// Watch connects to a running instance's progress endpoint and delivers
// its events until ctx is done or the run finishes.
func Watch(ctx context.Context, rawURL string, connectTimeout time.Duration, h Handlers) error {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: url %q needs a scheme and host", ErrConnect, rawURL)
	}

	opts := socket.DefaultOptions()
	if parsed.Path != "" && parsed.Path != "/" {
		opts.SetPath(parsed.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	connected := make(chan error, 1)
	finished := make(chan struct{}, 1)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("📡 Connected to progress server", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = ErrConnect
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("%w: %w", ErrConnect, e)
			}
		}
		connected <- err
	})
	io.On(types.EventName(EventTransition), func(data ...any) {
		if h.OnTransition == nil || len(data) == 0 {
			return
		}
		var m Message
		if err := decode(data[0], &m); err != nil {
			logger.Warn("Dropping malformed transition.", "error", err)
			return
		}
		h.OnTransition(m)
	})
	io.On(types.EventName(EventFinished), func(data ...any) {
		if h.OnFinished != nil && len(data) > 0 {
			var s Summary
			if err := decode(data[0], &s); err != nil {
				logger.Warn("Dropping malformed summary.", "error", err)
			} else {
				h.OnFinished(s)
			}
		}
		select {
		case finished <- struct{}{}:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(connectTimeout):
		return fmt.Errorf("%w: timed out after %s", ErrConnect, connectTimeout)
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return nil
	}
}
