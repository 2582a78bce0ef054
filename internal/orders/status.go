package orders

type Status string

const (
	StatusReceived   Status = "received"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready_for_pickup"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// validNext encodes the workflow: a linear path to completed, with
// cancellation reachable from every non-terminal state.
var validNext = map[Status]map[Status]bool{
	StatusReceived:   {StatusInProgress: true, StatusCancelled: true},
	StatusInProgress: {StatusReady: true, StatusCancelled: true},
	StatusReady:      {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Modifiable reports whether line items may still be added or removed.
func (s Status) Modifiable() bool {
	return s == StatusReceived || s == StatusInProgress
}
