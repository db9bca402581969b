package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventNewRequest        EventType = "new_request"
	EventRequestApproved   EventType = "request_approved"
	EventRequestRejected   EventType = "request_rejected"
	EventRequestCancelled  EventType = "request_cancelled"
	EventPaymentRequired   EventType = "payment_required"
	EventPaymentConfirmed  EventType = "payment_confirmed"
	EventHandoverConfirmed EventType = "handover_confirmed"
	EventReturnConfirmed   EventType = "return_confirmed"
	EventRatingReceived    EventType = "rating_received"
	EventNewMessage        EventType = "new_message"
)

type Notification struct {
	ID              int32     `json:"id"`
	TargetUserID    int32     `json:"target_user_id"`
	EventType       EventType `json:"event_type"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Link            string    `json:"link,omitempty"`
	IsRead          bool      `json:"is_read"`
	Timestamp       time.Time `json:"timestamp"`
	RelatedItemID   int32     `json:"related_item_id,omitempty"`
	RelatedUserID   int32     `json:"related_user_id,omitempty"`
	RelatedUserName string    `json:"related_user_name,omitempty"`
}

// NotificationPatch is the body of PATCH /notifications/{id}/.
type NotificationPatch struct {
	IsRead *bool `json:"is_read,omitempty"`
}

// RequestLink is the UI route of a rental request seen by the given party.
func RequestLink(r *RentalRequest, forUser int32) string {
	if forUser == r.OwnerID {
		return fmt.Sprintf("/my-listings?request=%d", r.ID)
	}
	return fmt.Sprintf("/my-rentals?request=%d", r.ID)
}
