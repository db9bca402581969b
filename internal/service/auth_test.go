package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentsnap/internal/domain"
	"rentsnap/internal/service"
	"rentsnap/internal/session"
)

type holder struct {
	sess *session.Session
}

func (h *holder) Session() *session.Session                           { return h.sess }
func (h *holder) UseSession(_ context.Context, sess *session.Session) { h.sess = sess }

func TestAuthService_LoginLogout(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAuthRepo)
	store := session.NewMemoryStore()
	h := &holder{sess: session.Anonymous()}
	svc := service.NewAuthService(repo, store, h)

	repo.On("Login", mock.Anything, domain.Credentials{Username: "otto", Password: "secret123"}).
		Return(&domain.AuthResult{Token: "tok", User: domain.User{ID: ownerID, Username: "otto"}}, nil).Once()

	sess, err := svc.Login(ctx, " otto ", "secret123")
	require.NoError(t, err)
	assert.Same(t, sess, h.sess)
	assert.Equal(t, ownerID, h.sess.UserID())
	token, ok, _ := store.Get(session.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)

	require.NoError(t, svc.Logout(ctx))
	assert.False(t, h.sess.Active())
	_, ok, _ = store.Get(session.KeyToken)
	assert.False(t, ok)
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc := service.NewAuthService(new(MockAuthRepo), session.NewMemoryStore(), &holder{})
	_, err := svc.Login(context.Background(), "", "x")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAuthService_Register(t *testing.T) {
	repo := new(MockAuthRepo)
	h := &holder{}
	svc := service.NewAuthService(repo, session.NewMemoryStore(), h)

	_, err := svc.Register(context.Background(), domain.Registration{Username: "rita", Email: "r@x.io", Password: "short"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	repo.On("Register", mock.Anything, mock.MatchedBy(func(r domain.Registration) bool { return r.Username == "rita" })).
		Return(&domain.AuthResult{Token: "tok2", User: domain.User{ID: requesterID, Username: "rita"}}, nil).Once()
	sess, err := svc.Register(context.Background(), domain.Registration{Username: "rita ", Email: "r@x.io", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, requesterID, sess.UserID())
}
