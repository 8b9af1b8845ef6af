package node

// State is the scheduler-side lifecycle position of a node during one run.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies.
	Pending State = iota
	// Runnable indicates every selected upstream node succeeded and the node
	// sits in the ready queue.
	Runnable
	// Running indicates a worker is executing the node.
	Running
	// Succeeded indicates the node finished without error.
	Succeeded
	// Failed indicates every attempt failed.
	Failed
	// Skipped indicates the node never ran: the adapter declined it, an
	// upstream failed, or the run was cancelled.
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Skipped
}

// Status is the reported outcome of a node in a run.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusError        Status = "error"
	StatusSkipped      Status = "skipped"
	StatusFailUpstream Status = "fail-upstream"
	StatusCancelled    Status = "cancelled"
)

// State maps a status to the terminal state it is reported in.
func (s Status) State() State {
	switch s {
	case StatusSuccess:
		return Succeeded
	case StatusError:
		return Failed
	default:
		return Skipped
	}
}
