package progress

import (
	"log/slog"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/scheduler"
)

// LogObserver writes every transition to a logger. Terminal transitions are
// logged at info (or warn for failures), the rest at debug.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver writing to logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

var _ scheduler.Observer = (*LogObserver)(nil)

// OnTransition implements scheduler.Observer.
func (o *LogObserver) OnTransition(e scheduler.Event) {
	logger := o.logger.With("node", e.NodeID.String(), "attempt", e.Attempt)
	switch {
	case e.To == node.Running && e.From == node.Running:
		logger.Warn("🔁 Retrying node.")
	case e.To == node.Running:
		logger.Info("▶️ Node started.")
	case e.Result != nil && e.To == node.Failed:
		logger.Warn("❌ Node failed.", "status", e.Result.Status, "duration", e.Result.Duration, "error", e.Result.Err)
	case e.Result != nil:
		logger.Info("✅ Node finished.", "status", e.Result.Status, "duration", e.Result.Duration, "message", e.Result.Message)
	default:
		logger.Debug("Node transition.", "from", e.From.String(), "to", e.To.String())
	}
}
