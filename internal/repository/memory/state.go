package memory

import (
	"time"

	"rentsnap/internal/domain"
)

type userRow struct {
	user domain.User
	hash string
}

type state struct {
	nextID        int32
	users         map[int32]*userRow
	items         map[int32]*domain.Item
	requests      map[int32]*domain.RentalRequest
	notifications map[int32]*domain.Notification
	categories    map[int32]*domain.Category
	conversations map[int32]*domain.Conversation
	messages      map[int32]*domain.Message
}

func newState() *state {
	return &state{
		users:         map[int32]*userRow{},
		items:         map[int32]*domain.Item{},
		requests:      map[int32]*domain.RentalRequest{},
		notifications: map[int32]*domain.Notification{},
		categories:    map[int32]*domain.Category{},
		conversations: map[int32]*domain.Conversation{},
		messages:      map[int32]*domain.Message{},
	}
}

// id hands out ids from one sequence shared by all tables.
func (st *state) id() int32 {
	st.nextID++
	return st.nextID
}

func (st *state) clone() *state {
	c := newState()
	c.nextID = st.nextID
	for k, v := range st.users {
		row := *v
		c.users[k] = &row
	}
	for k, v := range st.items {
		c.items[k] = copyItem(v)
	}
	for k, v := range st.requests {
		c.requests[k] = copyRequest(v)
	}
	for k, v := range st.notifications {
		n := *v
		c.notifications[k] = &n
	}
	for k, v := range st.categories {
		cat := *v
		c.categories[k] = &cat
	}
	for k, v := range st.conversations {
		c.conversations[k] = copyConversation(v)
	}
	for k, v := range st.messages {
		m := *v
		c.messages[k] = &m
	}
	return c
}

func copyItem(i *domain.Item) *domain.Item {
	c := *i
	if i.AvailableFromDate != nil {
		d := *i.AvailableFromDate
		c.AvailableFromDate = &d
	}
	return &c
}

func copyRequest(r *domain.RentalRequest) *domain.RentalRequest {
	c := *r
	if r.PaidAt != nil {
		t := *r.PaidAt
		c.PaidAt = &t
	}
	if r.HandedOverAt != nil {
		t := *r.HandedOverAt
		c.HandedOverAt = &t
	}
	if r.RatingGiven != nil {
		v := *r.RatingGiven
		c.RatingGiven = &v
	}
	return &c
}

func copyConversation(conv *domain.Conversation) *domain.Conversation {
	c := *conv
	c.ParticipantIDs = append([]int32(nil), conv.ParticipantIDs...)
	if conv.ItemID != nil {
		id := *conv.ItemID
		c.ItemID = &id
	}
	c.LastMessage = nil
	return &c
}

func now() time.Time {
	return time.Now().UTC()
}
