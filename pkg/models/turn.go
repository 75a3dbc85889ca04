package models

// ChatMessage is one message of the conversation history tail carried with
// a turn request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the inbound transport request for one chat turn.
type TurnRequest struct {
	ConversationID string        `json:"conversation_id"`
	Message        string        `json:"message"`
	Model          string        `json:"model"`
	Visibility     string        `json:"visibility"`
	Username       string        `json:"username"`
	History        []ChatMessage `json:"history"`
	FirstTurn      bool          `json:"first_turn"`
}
