package domain

import "time"

type Conversation struct {
	ID             int32     `json:"id"`
	ParticipantIDs []int32   `json:"participant_ids"`
	ItemID         *int32    `json:"item,omitempty"`
	ItemName       string    `json:"item_name,omitempty"`
	LastMessage    *Message  `json:"last_message,omitempty"`
	UnreadCount    int       `json:"unread_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID int32) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID             int32     `json:"id"`
	ConversationID int32     `json:"conversation"`
	SenderID       int32     `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Text           string    `json:"text"`
	IsRead         bool      `json:"is_read"`
	Timestamp      time.Time `json:"timestamp"`
}

type MessagePatch struct {
	IsRead *bool `json:"is_read,omitempty"`
}
