package progress

import (
	"net/http"
	"sync/atomic"

	"github.com/vk/gridflow/internal/scheduler"
	"github.com/zishang520/socket.io/v2/socket"
)

// Broadcaster is a scheduler.Observer that emits every transition to all
// connected socket.io clients.
type Broadcaster struct {
	io           *socket.Server
	emit         func(event string, payload any)
	invocationID string
	clients      atomic.Int64
}

// NewBroadcaster creates a socket.io server for one run. Mount Handler on
// an HTTP server to make it reachable.
func NewBroadcaster(invocationID string) *Broadcaster {
	io := socket.NewServer(nil, nil)
	b := &Broadcaster{io: io, invocationID: invocationID}
	b.emit = func(event string, payload any) {
		io.Emit(event, payload)
	}
	io.On("connection", func(clients ...any) {
		b.clients.Add(1)
		client := clients[0].(*socket.Socket)
		client.On("disconnect", func(...any) {
			b.clients.Add(-1)
		})
	})
	return b
}

var _ scheduler.Observer = (*Broadcaster)(nil)

// OnTransition implements scheduler.Observer.
func (b *Broadcaster) OnTransition(e scheduler.Event) {
	b.emit(EventTransition, NewMessage(b.invocationID, e))
}

// Finish announces the end of the run.
func (b *Broadcaster) Finish(r *scheduler.RunReport) {
	b.emit(EventFinished, NewSummary(r))
}

// Clients is the number of currently connected viewers.
func (b *Broadcaster) Clients() int64 {
	return b.clients.Load()
}

// Handler serves the socket.io endpoint. Mount it at /socket.io/.
func (b *Broadcaster) Handler() http.Handler {
	return b.io.ServeHandler(nil)
}

// Close disconnects all clients.
func (b *Broadcaster) Close() {
	b.io.Close(nil)
}
