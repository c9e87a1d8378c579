package models

// Status is the lifecycle state of an order. The set is closed; status is
// only ever written through the transition service.
type Status string

const (
	StatusReceived       Status = "received"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusCompleted      Status = "completed"
	StatusCanceled       Status = "canceled"
)

// Statuses lists every status in lifecycle order, canceled last.
var Statuses = []Status{
	StatusReceived,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusCompleted,
	StatusCanceled,
}

var statusOrder = map[Status]int{
	StatusReceived:       0,
	StatusConfirmed:      1,
	StatusPreparing:      2,
	StatusReady:          3,
	StatusOutForDelivery: 4,
	StatusCompleted:      5,
}

// stageColumns maps each status that carries a stage timestamp to its
// database column. received is the initial state and canceled records no
// stage of its own.
var stageColumns = map[Status]string{
	StatusConfirmed:      "confirmed_at",
	StatusPreparing:      "prepared_at",
	StatusReady:          "ready_at",
	StatusOutForDelivery: "out_for_delivery_at",
	StatusCompleted:      "completed_at",
}

// Valid reports whether s is one of the seven enumerated statuses.
func (s Status) Valid() bool {
	if s == StatusCanceled {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// StepIndex returns the position of s in the ordered progression
// received < confirmed < preparing < ready < out_for_delivery < completed.
// canceled has no position and returns -1.
func (s Status) StepIndex() int {
	if i, ok := statusOrder[s]; ok {
		return i
	}
	return -1
}

// StageColumn returns the stage-timestamp column for s, or "" when s does
// not record one (received, canceled).
func (s Status) StageColumn() string {
	return stageColumns[s]
}
