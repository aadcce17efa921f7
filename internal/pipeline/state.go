package pipeline

import (
	"fmt"
)

// State is a position in the analysis state machine.
type State int

const (
	StateIdle State = iota
	StateAnalyzingNiche
	StateProblemsReady
	StateGeneratingIdeas
	StateIdeasReady
	StateGeneratingAngles
	StateAnglesReady
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateAnalyzingNiche:   "analyzing_niche",
	StateProblemsReady:    "problems_ready",
	StateGeneratingIdeas:  "generating_ideas",
	StateIdeasReady:       "ideas_ready",
	StateGeneratingAngles: "generating_angles",
	StateAnglesReady:      "angles_ready",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// busy reports whether a request is in flight in this state.
func (s State) busy() bool {
	return s == StateAnalyzingNiche || s == StateGeneratingIdeas || s == StateGeneratingAngles
}

// Stage identifies one of the three analysis steps.
type Stage string

const (
	StageNone          Stage = ""
	StagePainPoints    Stage = "pain_points"
	StageProductIdeas  Stage = "product_ideas"
	StageSellingAngles Stage = "selling_angles"
)

// loadingStage maps an in-flight state to the stage being generated.
func (s State) loadingStage() Stage {
	switch s {
	case StateAnalyzingNiche:
		return StagePainPoints
	case StateGeneratingIdeas:
		return StageProductIdeas
	case StateGeneratingAngles:
		return StageSellingAngles
	default:
		return StageNone
	}
}

// FailureKind classifies a Failure overlay.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureRequest    FailureKind = "request"
)

// Failure is the error overlay shown on top of the current state. It never
// carries provider text; presentation picks a localized message from
// Kind and Stage.
type Failure struct {
	Kind  FailureKind `json:"kind"`
	Stage Stage       `json:"stage,omitempty"`
}
