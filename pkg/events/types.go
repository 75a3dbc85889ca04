// Package events defines the stream fragments relayed to the client during
// a chat turn, and the publisher that frames them.
//
// One turn produces an ordered, append-only sequence of JSON fragments,
// each tagged by kind. The client renders incrementally: answer_delta
// fragments grow the answer text, chart_data / ticker_list /
// follow_up_questions fragments attach structure as it becomes available,
// and the sequence always terminates with either a done or an error
// fragment, so a client is never left hanging without a terminal signal.
package events

// Fragment kinds.
const (
	KindStatusUpdate      = "status_update"
	KindAnswerDelta       = "answer_delta"
	KindChartData         = "chart_data"
	KindTickerList        = "ticker_list"
	KindFollowUpQuestions = "follow_up_questions"
	KindError             = "error"
	KindDone              = "done"
)

// Pipeline stage names published in status_update fragments.
const (
	StageClassifying       = "classifying"
	StageResolvingTickers  = "resolving_tickers"
	StageGatheringEvidence = "gathering_evidence"
	StageExecutingQueries  = "executing_queries"
	StageSynthesizing      = "synthesizing"
)

// StatusUpdatePayload reports a pipeline stage transition.
type StatusUpdatePayload struct {
	Kind      string `json:"kind"` // always KindStatusUpdate
	TurnID    string `json:"turn_id"`
	Stage     string `json:"stage"`
	Detail    string `json:"detail,omitempty"` // user-facing status line, when one exists
	Timestamp string `json:"timestamp"`        // RFC3339Nano
}

// AnswerDeltaPayload carries one incremental piece of the answer text.
// Deltas are new content only; the client concatenates locally.
type AnswerDeltaPayload struct {
	Kind   string `json:"kind"` // always KindAnswerDelta
	TurnID string `json:"turn_id"`
	Delta  string `json:"delta"`
}

// ChartPoint is one datum in a chart fragment.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartDataPayload carries the chart attached to the answer, when any.
type ChartDataPayload struct {
	Kind      string       `json:"kind"` // always KindChartData
	TurnID    string       `json:"turn_id"`
	ChartType string       `json:"chart_type"`
	Points    []ChartPoint `json:"points"`
}

// TickerListPayload carries the tickers and investor usernames the client
// should display alongside the answer.
type TickerListPayload struct {
	Kind      string   `json:"kind"` // always KindTickerList
	TurnID    string   `json:"turn_id"`
	Tickers   []string `json:"tickers"`
	Usernames []string `json:"usernames,omitempty"`
}

// FollowUpQuestionsPayload carries 0–3 suggested follow-up questions.
type FollowUpQuestionsPayload struct {
	Kind      string   `json:"kind"` // always KindFollowUpQuestions
	TurnID    string   `json:"turn_id"`
	Questions []string `json:"questions"`
}

// ErrorPayload is the terminal fragment for a failed turn.
type ErrorPayload struct {
	Kind    string `json:"kind"` // always KindError
	TurnID  string `json:"turn_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DonePayload is the terminal fragment for a completed turn. It carries the
// final merged answer so clients that missed deltas can reconcile.
type DonePayload struct {
	Kind          string   `json:"kind"` // always KindDone
	TurnID        string   `json:"turn_id"`
	Answer        string   `json:"answer"`
	ResponseShape string   `json:"response_shape"`
	Title         *string  `json:"title,omitempty"`
	Tickers       []string `json:"tickers,omitempty"`
}
