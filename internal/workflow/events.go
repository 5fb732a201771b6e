package workflow

// Event is the interface for all events emitted by a workflow loop.
type Event interface {
	event() // marker method
}

// RecordUpdated fires after any successful mutation of the record.
type RecordUpdated struct {
	Version int
}

func (RecordUpdated) event() {}

// StepChanged fires on every navigation.
type StepChanged struct {
	From Step
	To   Step
}

func (StepChanged) event() {}

// RosterSynced fires after a roster lands in the slots of one side.
type RosterSynced struct {
	Side   Side
	TeamID int
}

func (RosterSynced) event() {}

// RosterWarning fires when a roster read fails. Slots keep their
// last-known-good contents.
type RosterWarning struct {
	Side    Side
	Message string
}

func (RosterWarning) event() {}

// SubmissionStarted fires when the record is handed to the orchestrator.
type SubmissionStarted struct{}

func (SubmissionStarted) event() {}

// SubmissionSucceeded carries the persisted match id and per-player results.
type SubmissionSucceeded struct {
	Result *SubmissionResult
}

func (SubmissionSucceeded) event() {}

// SubmissionFailed fires on a fatal submission error. The record is
// preserved for retry.
type SubmissionFailed struct {
	Reason string
}

func (SubmissionFailed) event() {}
