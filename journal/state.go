package journal

// State is the lifecycle state of a Journal.
type State int32

const (
	// Uninitialized is the state after construction, before the first Start.
	Uninitialized State = iota
	// Running means the block publisher and chain controller are running.
	Running
	// Stopped means the journal was started and stopped again. It can be restarted.
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
