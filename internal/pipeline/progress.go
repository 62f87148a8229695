package pipeline

// SegmentState is the rendering state of one progress bar segment.
type SegmentState string

const (
	SegmentComplete   SegmentState = "complete"
	SegmentInProgress SegmentState = "in_progress"
	SegmentNotStarted SegmentState = "not_started"
)

var progressStages = []Stage{
	StagePreparation,
	StageDrafting,
	StageAttachments,
	StageReview,
	StageLodgment,
	StageOutcome,
	StageAcquittal,
}

// Segment is one step of the progress bar.
type Segment struct {
	Stage Stage        `json:"stage"`
	Label string       `json:"label"`
	State SegmentState `json:"state"`
}

// Progress is the derived progress bar for an application.
type Progress struct {
	Segments  []Segment `json:"segments"`
	Completed int       `json:"completed"`
	Filled    int       `json:"filled"`
	Total     int       `json:"total"`
}

// ProgressStages returns the stages that make up the progress bar.
func ProgressStages() []Stage {
	out := make([]Stage, len(progressStages))
	copy(out, progressStages)
	return out
}

// DeriveProgress computes the progress bar from the stage alone. It returns nil
// when no bar is rendered: open_match, proceeding and the terminal stages.
func DeriveProgress(s Stage) *Progress {
	current := -1
	for i, ps := range progressStages {
		if ps == s {
			current = i
			break
		}
	}
	if current < 0 {
		return nil
	}

	p := &Progress{
		Segments:  make([]Segment, len(progressStages)),
		Completed: current,
		Filled:    current + 1,
		Total:     len(progressStages),
	}
	for i, ps := range progressStages {
		state := SegmentNotStarted
		switch {
		case i < current:
			state = SegmentComplete
		case i == current:
			state = SegmentInProgress
		}
		p.Segments[i] = Segment{Stage: ps, Label: ps.Label(), State: state}
	}
	return p
}
