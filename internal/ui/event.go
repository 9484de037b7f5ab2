package ui

// Stage is the step of a check pass a file is in.
type Stage uint8

const (
	StageQueued Stage = iota
	StageSegment
	StageFetch
	StageMap
)

// Status is the state of a file in a run.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event reports the progress of one file. An event with an empty File
// updates the run header instead.
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Findings int
	Note     string
}
