package api

import "github.com/marketmind/marketmind/pkg/models"

// turnRequest is the wire shape of POST /api/chat/turns.
type turnRequest struct {
	ConversationID string        `json:"conversation_id" binding:"required"`
	Message        string        `json:"message" binding:"required"`
	Model          string        `json:"model"`
	Visibility     string        `json:"visibility" binding:"omitempty,oneof=private public"`
	Username       string        `json:"username"`
	History        []chatMessage `json:"history" binding:"omitempty,dive"`
	FirstTurn      bool          `json:"first_turn"`
}

type chatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

func (r turnRequest) toModel() models.TurnRequest {
	history := make([]models.ChatMessage, len(r.History))
	for i, m := range r.History {
		history[i] = models.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return models.TurnRequest{
		ConversationID: r.ConversationID,
		Message:        r.Message,
		Model:          r.Model,
		Visibility:     r.Visibility,
		Username:       r.Username,
		History:        history,
		FirstTurn:      r.FirstTurn,
	}
}
