package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

func notFound(kind string, id int32) error {
	return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
}

func (st *state) userName(id int32) string {
	if row, ok := st.users[id]; ok {
		return row.user.DisplayName()
	}
	return ""
}

type users struct{ view viewFunc }

func (u users) Create(ctx context.Context, user *domain.User, passwordHash string) error {
	return u.view(func(st *state) error {
		for _, row := range st.users {
			if strings.EqualFold(row.user.Username, user.Username) {
				return fmt.Errorf("username %q: %w", user.Username, domain.ErrConflict)
			}
		}
		user.ID = st.id()
		user.CreatedAt = now()
		st.users[user.ID] = &userRow{user: *user, hash: passwordHash}
		return nil
	})
}

func (u users) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	var out *domain.User
	err := u.view(func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return notFound("user", id)
		}
		user := row.user
		out = &user
		return nil
	})
	return out, err
}

func (u users) GetByUsername(ctx context.Context, username string) (*domain.User, string, error) {
	var out *domain.User
	var hash string
	err := u.view(func(st *state) error {
		for _, row := range st.users {
			if strings.EqualFold(row.user.Username, username) {
				user := row.user
				out, hash = &user, row.hash
				return nil
			}
		}
		return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	})
	return out, hash, err
}

type items struct{ view viewFunc }

func (st *state) readItem(i *domain.Item) *domain.Item {
	c := copyItem(i)
	if cat, ok := st.categories[i.CategoryID]; ok {
		c.CategoryName = cat.Name
	}
	c.OwnerName = st.userName(i.OwnerID)
	return c
}

func (it items) List(ctx context.Context, filter repository.ItemFilter) ([]*domain.Item, error) {
	var out []*domain.Item
	err := it.view(func(st *state) error {
		for _, i := range st.items {
			if filter.Match(i) {
				out = append(out, st.readItem(i))
			}
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out, err
}

func (it items) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	var out *domain.Item
	err := it.view(func(st *state) error {
		i, ok := st.items[id]
		if !ok {
			return notFound("item", id)
		}
		out = st.readItem(i)
		return nil
	})
	return out, err
}

// Lock only checks the item exists; memory transactions already run one at a time.
func (it items) Lock(ctx context.Context, id int32) error {
	return it.view(func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return notFound("item", id)
		}
		return nil
	})
}

func (it items) Create(ctx context.Context, item *domain.Item) error {
	return it.view(func(st *state) error {
		if _, ok := st.categories[item.CategoryID]; !ok {
			return &domain.ValidationError{Field: "category", Message: fmt.Sprintf("category %d does not exist", item.CategoryID)}
		}
		item.ID = st.id()
		item.CreatedAt = now()
		item.UpdatedAt = item.CreatedAt
		st.items[item.ID] = copyItem(item)
		return nil
	})
}

func (it items) Update(ctx context.Context, item *domain.Item) error {
	return it.view(func(st *state) error {
		cur, ok := st.items[item.ID]
		if !ok {
			return notFound("item", item.ID)
		}
		if _, ok := st.categories[item.CategoryID]; !ok {
			return &domain.ValidationError{Field: "category", Message: fmt.Sprintf("category %d does not exist", item.CategoryID)}
		}
		item.CreatedAt = cur.CreatedAt
		item.UpdatedAt = now()
		st.items[item.ID] = copyItem(item)
		return nil
	})
}

func (it items) Delete(ctx context.Context, id int32) error {
	return it.view(func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return notFound("item", id)
		}
		delete(st.items, id)
		for rid, r := range st.requests {
			if r.ItemID == id {
				delete(st.requests, rid)
			}
		}
		for _, c := range st.conversations {
			if c.ItemID != nil && *c.ItemID == id {
				c.ItemID = nil
			}
		}
		return nil
	})
}

type requests struct{ view viewFunc }

func (st *state) readRequest(r *domain.RentalRequest) *domain.RentalRequest {
	c := copyRequest(r)
	if i, ok := st.items[r.ItemID]; ok {
		c.ItemName = i.Name
	}
	if name := st.userName(r.RequesterID); name != "" {
		c.RequesterName = name
	}
	if name := st.userName(r.OwnerID); name != "" {
		c.OwnerName = name
	}
	return c
}

func (rs requests) List(ctx context.Context, filter repository.RequestFilter) ([]*domain.RentalRequest, error) {
	var out []*domain.RentalRequest
	err := rs.view(func(st *state) error {
		for _, r := range st.requests {
			if filter.Match(r) {
				out = append(out, st.readRequest(r))
			}
		}
		return nil
	})
	sortRequests(out)
	return out, err
}

func sortRequests(out []*domain.RentalRequest) {
	sort.Slice(out, func(a, b int) bool {
		if !out[a].RequestedAt.Equal(out[b].RequestedAt) {
			return out[a].RequestedAt.After(out[b].RequestedAt)
		}
		return out[a].ID > out[b].ID
	})
}

func (rs requests) GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	var out *domain.RentalRequest
	err := rs.view(func(st *state) error {
		r, ok := st.requests[id]
		if !ok {
			return notFound("request", id)
		}
		out = st.readRequest(r)
		return nil
	})
	return out, err
}

func (rs requests) Create(ctx context.Context, r *domain.RentalRequest) error {
	return rs.view(func(st *state) error {
		if _, ok := st.items[r.ItemID]; !ok {
			return &domain.ValidationError{Field: "item", Message: fmt.Sprintf("item %d does not exist", r.ItemID)}
		}
		r.ID = st.id()
		if r.RequestedAt.IsZero() {
			r.RequestedAt = now()
		}
		r.UpdatedAt = r.RequestedAt
		st.requests[r.ID] = copyRequest(r)
		return nil
	})
}

func (rs requests) Update(ctx context.Context, r *domain.RentalRequest, expected domain.RequestStatus) error {
	return rs.view(func(st *state) error {
		cur, ok := st.requests[r.ID]
		if !ok {
			return notFound("request", r.ID)
		}
		if cur.Status != expected {
			return fmt.Errorf("request %d is %s, not %s: %w", r.ID, cur.Status, expected, domain.ErrConflict)
		}
		r.UpdatedAt = now()
		st.requests[r.ID] = copyRequest(r)
		return nil
	})
}

func (rs requests) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.RentalRequest, error) {
	var out []*domain.RentalRequest
	err := rs.view(func(st *state) error {
		for _, r := range st.requests {
			if r.Status == domain.StatusPending && r.RequestedAt.Before(cutoff) {
				out = append(out, st.readRequest(r))
			}
		}
		return nil
	})
	sortRequests(out)
	return out, err
}

type notifications struct{ view viewFunc }

func (ns notifications) List(ctx context.Context, userID int32) ([]*domain.Notification, error) {
	var out []*domain.Notification
	err := ns.view(func(st *state) error {
		for _, n := range st.notifications {
			if n.TargetUserID == userID {
				c := *n
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Timestamp.Equal(out[b].Timestamp) {
			return out[a].Timestamp.After(out[b].Timestamp)
		}
		return out[a].ID > out[b].ID
	})
	return out, err
}

func (ns notifications) GetByID(ctx context.Context, id int32) (*domain.Notification, error) {
	var out *domain.Notification
	err := ns.view(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return notFound("notification", id)
		}
		c := *n
		out = &c
		return nil
	})
	return out, err
}

func (ns notifications) Create(ctx context.Context, n *domain.Notification) error {
	return ns.view(func(st *state) error {
		n.ID = st.id()
		n.Timestamp = now()
		c := *n
		st.notifications[n.ID] = &c
		return nil
	})
}

func (ns notifications) MarkRead(ctx context.Context, id int32) error {
	return ns.view(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return notFound("notification", id)
		}
		n.IsRead = true
		return nil
	})
}

type categories struct{ view viewFunc }

func (cs categories) List(ctx context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	err := cs.view(func(st *state) error {
		for _, c := range st.categories {
			cat := *c
			out = append(out, &cat)
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool { return strings.ToLower(out[a].Name) < strings.ToLower(out[b].Name) })
	return out, err
}

func (cs categories) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	var out *domain.Category
	err := cs.view(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return notFound("category", id)
		}
		cat := *c
		out = &cat
		return nil
	})
	return out, err
}

func (cs categories) Create(ctx context.Context, c *domain.Category) error {
	return cs.view(func(st *state) error {
		for _, existing := range st.categories {
			if strings.EqualFold(existing.Name, c.Name) {
				return fmt.Errorf("category %q: %w", c.Name, domain.ErrConflict)
			}
		}
		c.ID = st.id()
		cat := *c
		st.categories[c.ID] = &cat
		return nil
	})
}

type conversations struct{ view viewFunc }

func (st *state) readConversation(c *domain.Conversation) *domain.Conversation {
	out := copyConversation(c)
	if out.ItemID != nil {
		if i, ok := st.items[*out.ItemID]; ok {
			out.ItemName = i.Name
		}
	}
	return out
}

func (st *state) readMessage(m *domain.Message) *domain.Message {
	c := *m
	c.SenderName = st.userName(m.SenderID)
	return &c
}

func (cs conversations) ListForUser(ctx context.Context, userID int32) ([]*domain.Conversation, error) {
	var out []*domain.Conversation
	err := cs.view(func(st *state) error {
		for _, c := range st.conversations {
			if c.HasParticipant(userID) {
				out = append(out, st.readConversation(c))
			}
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool {
		if !out[a].UpdatedAt.Equal(out[b].UpdatedAt) {
			return out[a].UpdatedAt.After(out[b].UpdatedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out, err
}

func (cs conversations) GetByID(ctx context.Context, id int32) (*domain.Conversation, error) {
	var out *domain.Conversation
	err := cs.view(func(st *state) error {
		c, ok := st.conversations[id]
		if !ok {
			return notFound("conversation", id)
		}
		out = st.readConversation(c)
		return nil
	})
	return out, err
}

func (cs conversations) Create(ctx context.Context, c *domain.Conversation) error {
	return cs.view(func(st *state) error {
		c.ID = st.id()
		c.CreatedAt = now()
		c.UpdatedAt = c.CreatedAt
		st.conversations[c.ID] = copyConversation(c)
		return nil
	})
}

func (cs conversations) ListMessages(ctx context.Context, conversationID int32) ([]*domain.Message, error) {
	var out []*domain.Message
	err := cs.view(func(st *state) error {
		for _, m := range st.messages {
			if m.ConversationID == conversationID {
				out = append(out, st.readMessage(m))
			}
		}
		return nil
	})
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Timestamp.Equal(out[b].Timestamp) {
			return out[a].Timestamp.Before(out[b].Timestamp)
		}
		return out[a].ID < out[b].ID
	})
	return out, err
}

func (cs conversations) GetMessage(ctx context.Context, id int32) (*domain.Message, error) {
	var out *domain.Message
	err := cs.view(func(st *state) error {
		m, ok := st.messages[id]
		if !ok {
			return notFound("message", id)
		}
		out = st.readMessage(m)
		return nil
	})
	return out, err
}

func (cs conversations) CreateMessage(ctx context.Context, m *domain.Message) error {
	return cs.view(func(st *state) error {
		conv, ok := st.conversations[m.ConversationID]
		if !ok {
			return notFound("conversation", m.ConversationID)
		}
		m.ID = st.id()
		m.Timestamp = now()
		m.SenderName = st.userName(m.SenderID)
		c := *m
		st.messages[m.ID] = &c
		conv.UpdatedAt = m.Timestamp
		return nil
	})
}

func (cs conversations) MarkMessageRead(ctx context.Context, id int32) error {
	return cs.view(func(st *state) error {
		m, ok := st.messages[id]
		if !ok {
			return notFound("message", id)
		}
		m.IsRead = true
		return nil
	})
}
