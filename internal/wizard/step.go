package wizard

// Step is the wizard position. Steps only advance one at a time.
type Step int

const (
	StepTopic Step = iota + 1
	StepOutline
	StepContent
	StepPreview
)

func (s Step) String() string {
	switch s {
	case StepTopic:
		return "topic"
	case StepOutline:
		return "outline"
	case StepContent:
		return "content"
	case StepPreview:
		return "preview"
	}
	return "unknown"
}
