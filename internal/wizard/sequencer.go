package wizard

import (
	"errors"
	"strings"

	"searchadmin/internal/domain"
)

// Step is a position in the three-step wizard.
type Step int

const (
	StepSelectEmbedding Step = iota
	StepSelectReranking
	StepAdvancedOptions
)

const (
	firstStep = StepSelectEmbedding
	lastStep  = StepAdvancedOptions
)

func (s Step) String() string {
	switch s {
	case StepSelectEmbedding:
		return "Embedding Model"
	case StepSelectReranking:
		return "Reranking"
	case StepAdvancedOptions:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// Steps lists every step in order.
func Steps() []Step {
	return []Step{StepSelectEmbedding, StepSelectReranking, StepAdvancedOptions}
}

// ErrNoModelSelected is returned when advancing past the first step without a model.
var ErrNoModelSelected = errors.New("select an embedding model first")

// QualityCheck reports whether a model name is known to give poor results.
type QualityCheck func(modelName string) bool

// DefaultLowQualityMarkers flag the older e5 family.
var DefaultLowQualityMarkers = []string{"e5"}

// MarkerCheck flags names containing any marker, case-insensitively.
func MarkerCheck(markers []string) QualityCheck {
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			lowered = append(lowered, m)
		}
	}
	return func(name string) bool {
		name = strings.ToLower(name)
		for _, m := range lowered {
			if strings.Contains(name, m) {
				return true
			}
		}
		return false
	}
}

// Sequencer is the linear step state machine. Leaving the first step is gated
// on a selected model and, for low-quality models, a confirmation prompt shown
// once per selection.
type Sequencer struct {
	step       Step
	lowQuality QualityCheck
	promptOpen bool
	confirmed  bool
	prompted   bool
	prompts    int
}

// NewSequencer starts at the first step.
func NewSequencer(check QualityCheck) *Sequencer {
	if check == nil {
		check = MarkerCheck(DefaultLowQualityMarkers)
	}
	return &Sequencer{lowQuality: check}
}

func (s *Sequencer) Step() Step { return s.step }

// PromptOpen reports whether the low-quality confirmation is waiting for an answer.
func (s *Sequencer) PromptOpen() bool { return s.promptOpen }

// Prompts counts how many times the confirmation has been opened.
func (s *Sequencer) Prompts() int { return s.prompts }

// Advance moves forward one step, clamped to the last step.
func (s *Sequencer) Advance(selected *domain.EmbeddingModel) error {
	if s.promptOpen {
		return nil
	}
	if s.step == StepSelectEmbedding {
		if selected == nil {
			return ErrNoModelSelected
		}
		if s.needsConfirmation(selected) {
			s.promptOpen = true
			s.prompted = true
			s.prompts++
			return nil
		}
	}
	if s.step < lastStep {
		s.step++
	}
	return nil
}

// Confirm answers the open prompt. Accepting advances to reranking; declining
// stays on the first step, and the next Advance proceeds without asking again.
func (s *Sequencer) Confirm(accept bool) {
	if !s.promptOpen {
		return
	}
	s.promptOpen = false
	if accept {
		s.confirmed = true
		s.step = StepSelectReranking
	}
}

// Retreat moves back one step, clamped to the first step. An open prompt is
// treated as declined.
func (s *Sequencer) Retreat() {
	if s.promptOpen {
		s.promptOpen = false
		return
	}
	if s.step > firstStep {
		s.step--
	}
}

// JumpTo moves to target if it was already visited or its prerequisites
// exist. It reports whether the move happened.
func (s *Sequencer) JumpTo(target Step, selected *domain.EmbeddingModel) bool {
	if target < firstStep || target > lastStep || s.promptOpen {
		return false
	}
	if target <= s.step {
		s.step = target
		return true
	}
	if selected == nil || s.needsConfirmation(selected) {
		return false
	}
	s.step = target
	return true
}

// SelectionChanged forgets any prompt shown or confirmation given for the
// previous model.
func (s *Sequencer) SelectionChanged() {
	s.confirmed = false
	s.prompted = false
	s.promptOpen = false
}

// Reset returns to the first step with no confirmation state.
func (s *Sequencer) Reset() {
	s.step = firstStep
	s.promptOpen = false
	s.confirmed = false
	s.prompted = false
}

func (s *Sequencer) needsConfirmation(m *domain.EmbeddingModel) bool {
	return !s.confirmed && !s.prompted && s.lowQuality(m.ModelName)
}
