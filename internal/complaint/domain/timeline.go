package domain

// TimelineStep is one stage of the progress indicator shown to citizens
type TimelineStep struct {
	Label  string `json:"label"`
	Status Status `json:"status"`
	Done   bool   `json:"done"`
}

var timelineStages = []TimelineStep{
	{Label: "Submitted", Status: StatusPending},
	{Label: "Assigned", Status: StatusAssigned},
	{Label: "In Progress", Status: StatusInProgress},
	{Label: "Resolved", Status: StatusResolved},
}

// Timeline returns the progress stages with every stage up to the current
// one marked done, plus the current index. A rejected complaint has no
// current stage and returns -1.
func Timeline(s Status) ([]TimelineStep, int) {
	current := -1
	for i, st := range timelineStages {
		if st.Status == s {
			current = i
		}
	}
	steps := make([]TimelineStep, len(timelineStages))
	for i, st := range timelineStages {
		st.Done = current >= 0 && i <= current
		steps[i] = st
	}
	return steps, current
}
