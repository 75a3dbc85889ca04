package models

// ResponseShape tags how the client should lay out the answer.
type ResponseShape string

const (
	ResponseShapeText  ResponseShape = "text"
	ResponseShapeList  ResponseShape = "list"
	ResponseShapeChart ResponseShape = "chart"
)

// IsValid checks whether the response shape is a known value
func (s ResponseShape) IsValid() bool {
	switch s {
	case ResponseShapeText, ResponseShapeList, ResponseShapeChart:
		return true
	}
	return false
}

// ChartPoint is one datum of the answer's chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// FinalAnswer is the terminal structured object of a turn. During synthesis
// it is streamed as a monotonically growing partial object: fields appear
// and extend across deltas but never shrink or contradict earlier deltas.
type FinalAnswer struct {
	Answer             string        `json:"answer"`
	ResponseShape      ResponseShape `json:"responseShape"`
	ChartType          string        `json:"chartType,omitempty"`
	ChartPoints        []ChartPoint  `json:"chartPoints,omitempty"`
	Title              *string       `json:"title"`
	FollowUpQuestions  []string      `json:"followUpQuestions,omitempty"`
	TickersToDisplay   []string      `json:"tickersToDisplay,omitempty"`
	UsernamesToDisplay []string      `json:"usernamesToDisplay,omitempty"`
	DisplayPreference  string        `json:"displayPreference,omitempty"`
}

// MergeAnswer folds a newer partial FinalAnswer into an accumulated one.
// The reducer is monotone: a field already present in prev is only ever
// replaced by a strictly larger or equally informative value from delta,
// so applying the deltas of a stream in order reconstructs exactly the
// final object. It is associative over ordered partials and never loses
// appended content.
func MergeAnswer(prev, delta FinalAnswer) FinalAnswer {
	out := prev
	if len(delta.Answer) >= len(prev.Answer) {
		out.Answer = delta.Answer
	}
	if delta.ResponseShape != "" {
		out.ResponseShape = delta.ResponseShape
	}
	if delta.ChartType != "" {
		out.ChartType = delta.ChartType
	}
	if len(delta.ChartPoints) >= len(prev.ChartPoints) && delta.ChartPoints != nil {
		out.ChartPoints = delta.ChartPoints
	}
	if delta.Title != nil {
		out.Title = delta.Title
	}
	if len(delta.FollowUpQuestions) >= len(prev.FollowUpQuestions) && delta.FollowUpQuestions != nil {
		out.FollowUpQuestions = delta.FollowUpQuestions
	}
	if len(delta.TickersToDisplay) >= len(prev.TickersToDisplay) && delta.TickersToDisplay != nil {
		out.TickersToDisplay = delta.TickersToDisplay
	}
	if len(delta.UsernamesToDisplay) >= len(prev.UsernamesToDisplay) && delta.UsernamesToDisplay != nil {
		out.UsernamesToDisplay = delta.UsernamesToDisplay
	}
	if delta.DisplayPreference != "" {
		out.DisplayPreference = delta.DisplayPreference
	}
	return out
}
