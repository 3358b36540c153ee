package fill

// ItemKey addresses one subtopic.
type ItemKey struct {
	SectionID  string `json:"sectionId"`
	SubtopicID string `json:"subtopicId"`
}

func (k ItemKey) String() string { return k.SectionID + "-" + k.SubtopicID }

// ItemState is the per-subtopic generation state:
// Idle -> Generating -> (Filled | Failed). Filled and Failed items may be
// generated again, which moves them back to Generating.
type ItemState int

const (
	Idle ItemState = iota
	Generating
	Filled
	Failed
)

func (s ItemState) String() string {
	switch s {
	case Generating:
		return "generating"
	case Filled:
		return "filled"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}
