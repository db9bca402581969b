package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "rentsnap/internal/api/http"
	"rentsnap/internal/backend"
	"rentsnap/internal/domain"
	"rentsnap/internal/imaging"
	"rentsnap/internal/repository/memory"
	"rentsnap/internal/security"
	"rentsnap/internal/storage"
)

type apiClient struct {
	t      *testing.T
	srv    *httptest.Server
	tokens map[string]string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	mediaDir := t.TempDir()
	local, err := storage.NewLocalStorage("http://media.test/media", mediaDir)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	b := backend.New(memory.NewStore(), security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour),
		backend.WithClock(func() time.Time { return now }),
		backend.WithImages(local, imaging.NewProcessor(64, 1<<20, []string{"image/png", "image/jpeg"})))
	_, err = b.CreateCategory(context.Background(), "Camping")
	require.NoError(t, err)

	srv := httptest.NewServer(apihttp.NewRouter(b, apihttp.RouterOptions{
		AllowedOrigins: []string{"http://localhost:5173"},
		MediaDir:       mediaDir,
		MaxUploadBytes: 1 << 20,
	}))
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv, tokens: map[string]string{}}
}

func (c *apiClient) do(user, method, path string, body any, out any) *http.Response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok := c.tokens[user]; tok != "" {
		req.Header.Set("Authorization", "Token "+tok)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	} else if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

func (c *apiClient) register(name string) domain.User {
	c.t.Helper()
	var res domain.AuthResult
	resp := c.do("", http.MethodPost, "/api/auth/register/", domain.Registration{
		Username: name, Email: name + "@example.com", Password: "password123",
	}, &res)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	c.tokens[name] = res.Token
	return res.User
}

func (c *apiClient) createItem(owner string) domain.Item {
	c.t.Helper()
	var item domain.Item
	resp := c.do(owner, http.MethodPost, "/api/items/", map[string]any{
		"name": "Tent", "category": 1, "price_per_day": "50.00", "security_deposit": "20.00",
	}, &item)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	return item
}

func TestHealth(t *testing.T) {
	c := newAPI(t)
	var body map[string]string
	resp := c.do("", http.MethodGet, "/healthz", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	c := newAPI(t)
	c.register("otto")

	resp := c.do("", http.MethodGet, "/api/items/", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail map[string]string
	resp = c.do("", http.MethodPost, "/api/items/", map[string]any{"name": "Tent"}, &detail)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, detail["detail"])

	c.tokens["ghost"] = "not-a-token"
	resp = c.do("ghost", http.MethodGet, "/api/requests/", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// public reads tolerate a stale token
	resp = c.do("ghost", http.MethodGet, "/api/categories/", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	c := newAPI(t)
	c.register("otto")

	var body map[string][]string
	resp := c.do("", http.MethodPost, "/api/auth/login/", domain.Credentials{Username: "otto", Password: "wrong-password"}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["non_field_errors"])
}

func TestRequestFlow(t *testing.T) {
	c := newAPI(t)
	c.register("otto")
	c.register("rita")
	item := c.createItem("otto")

	var req domain.RentalRequest
	resp := c.do("rita", http.MethodPost, "/api/requests/", map[string]any{
		"item": item.ID, "start_date": "2026-03-01", "end_date": "2026-03-03", "total_price": "150.00",
	}, &req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, domain.Money(15000), req.TotalPrice)

	path := "/api/requests/" + itoa(req.ID) + "/"

	var body map[string]string
	resp = c.do("rita", http.MethodPatch, path, map[string]any{"status": "Approved"}, &body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", body["code"])

	var approved domain.RentalRequest
	resp = c.do("otto", http.MethodPatch, path, map[string]any{"status": "Approved"}, &approved)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, approved.HandoverCode)

	var seen domain.RentalRequest
	c.do("rita", http.MethodGet, path, nil, &seen)
	assert.Empty(t, seen.HandoverCode)

	resp = c.do("otto", http.MethodPatch, path, map[string]any{"status": "AwaitingPayment"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var paid domain.RentalRequest
	resp = c.do("rita", http.MethodPost, path+"simulate_payment/", nil, &paid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, paid.PaidAt)

	body = nil
	resp = c.do("rita", http.MethodPost, path+"confirm_handover/", domain.CodeSubmission{Code: "WRONG"}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "code_mismatch", body["code"])

	var handed domain.RentalRequest
	resp = c.do("rita", http.MethodPost, path+"confirm_handover/", domain.CodeSubmission{Code: strings.ToLower(approved.HandoverCode)}, &handed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, handed.HandedOverAt)
	assert.NotEmpty(t, handed.ReturnCode)

	var rented domain.Item
	c.do("", http.MethodGet, "/api/items/"+itoa(item.ID)+"/", nil, &rented)
	assert.Equal(t, domain.AvailabilityRented, rented.AvailabilityStatus)

	body = nil
	resp = c.do("otto", http.MethodDelete, "/api/items/"+itoa(item.ID)+"/", nil, &body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "item_in_use", body["code"])

	var done domain.RentalRequest
	resp = c.do("otto", http.MethodPost, path+"confirm_return/", domain.CodeSubmission{Code: handed.ReturnCode}, &done)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusCompleted, done.Status)
}

func TestNotificationInboxIsPrivate(t *testing.T) {
	c := newAPI(t)
	otto := c.register("otto")
	c.register("rita")

	resp := c.do("rita", http.MethodGet, "/api/notifications/?user_id="+itoa(otto.ID), nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = c.do("otto", http.MethodGet, "/api/notifications/?user_id="+itoa(otto.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadImage(t *testing.T) {
	c := newAPI(t)
	c.register("otto")
	c.register("rita")
	item := c.createItem("otto")

	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	upload := func(user string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("image", "tent.png")
		require.NoError(t, err)
		_, err = part.Write(pngData.Bytes())
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, c.srv.URL+"/api/items/"+itoa(item.ID)+"/upload-image/", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Token "+c.tokens[user])
		resp, err := c.srv.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := upload("rita")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = upload("otto")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	require.True(t, strings.HasPrefix(updated.ImageURL, "http://media.test/media/items/"))

	media, err := c.srv.Client().Get(c.srv.URL + strings.TrimPrefix(updated.ImageURL, "http://media.test"))
	require.NoError(t, err)
	defer media.Body.Close()
	assert.Equal(t, http.StatusOK, media.StatusCode)
	assert.Equal(t, "image/jpeg", media.Header.Get("Content-Type"))

	decoded, _, err := image.Decode(media.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
}

func TestCORSPreflight(t *testing.T) {
	c := newAPI(t)
	req, err := http.NewRequest(http.MethodOptions, c.srv.URL+"/api/items/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := c.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func itoa(id int32) string {
	return strconv.Itoa(int(id))
}
