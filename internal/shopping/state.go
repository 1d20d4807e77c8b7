package shopping

import "fmt"

type Phase int

const (
	PhaseOff Phase = iota
	PhaseSetup
	PhaseAutoRun
)

func (p Phase) String() string {
	switch p {
	case PhaseOff:
		return "OFF"
	case PhaseSetup:
		return "SETUP"
	case PhaseAutoRun:
		return "AUTO_RUN"
	default:
		return "UNKNOWN"
	}
}

type StepKind int

const (
	StepMoveToBox StepKind = iota
	StepConfirm
	StepUtility
)

func (k StepKind) String() string {
	switch k {
	case StepMoveToBox:
		return "move"
	case StepConfirm:
		return "confirm"
	case StepUtility:
		return "utility"
	default:
		return "unknown"
	}
}

// Step is the next action of the auto-run loop. Box is the shopping box
// index; Press counts confirm presses from 1.
type Step struct {
	Kind  StepKind
	Box   int
	Press int
}

func (s Step) String() string {
	switch s.Kind {
	case StepMoveToBox:
		return fmt.Sprintf("move(%d)", s.Box)
	case StepConfirm:
		return fmt.Sprintf("confirm(%d, box %d)", s.Press, s.Box)
	default:
		return s.Kind.String()
	}
}

// State is a snapshot of the macro. Step, Cycle and Alternator are only
// meaningful in AUTO_RUN.
type State struct {
	Phase      Phase
	Step       Step
	Cycle      int
	Alternator int
}

func (s State) String() string {
	if s.Phase != PhaseAutoRun {
		return s.Phase.String()
	}
	return fmt.Sprintf("%s %s cycle=%d alt=%d", s.Phase, s.Step, s.Cycle, s.Alternator)
}
