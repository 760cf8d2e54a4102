package router

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"contacts_api/internal/auth"
	"contacts_api/internal/contacts"
	"contacts_api/internal/lib/avatar"
	"contacts_api/internal/lib/jwt"
	"contacts_api/internal/models"
	"contacts_api/internal/storage/files"
	"contacts_api/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (o *outbox) SendMessage(_ context.Context, msg models.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.msgs = append(o.msgs, msg)

	return nil
}

var linkRe = regexp.MustCompile(`/api/users/verify/([0-9a-f-]+)`)

func (o *outbox) lastToken(t *testing.T) string {
	t.Helper()

	o.mu.Lock()
	defer o.mu.Unlock()

	require.NotEmpty(t, o.msgs)

	m := linkRe.FindStringSubmatch(o.msgs[len(o.msgs)-1].HTML)
	require.Len(t, m, 2)

	return m[1]
}

type env struct {
	srv *httptest.Server
	box *outbox
}

func newEnv(t *testing.T) *env {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	box := &outbox{}

	root := t.TempDir()
	tmp := filepath.Join(root, "tmp")
	avatars, err := files.New(filepath.Join(root, "avatars"))
	require.NoError(t, err)
	_, err = files.New(tmp)
	require.NoError(t, err)

	a := auth.New(log, store, store, jwt.New("secret", 23*time.Hour), box, avatar.Resizer{}, avatars, auth.Options{
		BaseURL:      "http://localhost:3000",
		PasswordCost: bcrypt.MinCost,
		AvatarSize:   avatar.DefaultSize,
	})

	srv := httptest.NewServer(New(log, Deps{
		Auth:          a,
		Contacts:      contacts.New(log, store),
		Avatars:       avatars,
		TempDir:       tmp,
		MaxUploadSize: 1 << 20,
	}))
	t.Cleanup(srv.Close)

	return &env{srv: srv, box: box}
}

func (e *env) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return e.send(t, req, token)
}

func (e *env) send(t *testing.T, req *http.Request, token string) (int, map[string]any) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return res.StatusCode, out
}

func (e *env) signUp(t *testing.T, email, pass string) string {
	t.Helper()

	code, _ := e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{"email": email, "password": pass})
	require.Equal(t, http.StatusCreated, code)

	code, _ = e.do(t, http.MethodGet, "/api/users/verify/"+e.box.lastToken(t), "", nil)
	require.Equal(t, http.StatusOK, code)

	code, body := e.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": email, "password": pass})
	require.Equal(t, http.StatusOK, code)

	return body["token"].(string)
}

func TestUsers_Lifecycle(t *testing.T) {
	e := newEnv(t)

	creds := map[string]string{"email": "a@x.com", "password": "pw1"}

	code, body := e.do(t, http.MethodPost, "/api/users/register", "", creds)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, models.SubscriptionStarter, body["subscription"])
	assert.Equal(t, avatar.Placeholder("a@x.com"), body["avatarURL"])

	code, body = e.do(t, http.MethodPost, "/api/users/register", "", creds)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email in use", body["error"])

	code, body = e.do(t, http.MethodPost, "/api/users/login", "", creds)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Email or password invalid", body["error"])

	code, _ = e.do(t, http.MethodGet, "/api/users/verify/not-a-token", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	token := e.box.lastToken(t)

	code, body = e.do(t, http.MethodGet, "/api/users/verify/"+token, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Verification successful", body["message"])

	code, _ = e.do(t, http.MethodGet, "/api/users/verify/"+token, "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = e.do(t, http.MethodPost, "/api/users/verify", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Verification has already been passed", body["error"])

	code, body = e.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Email or password invalid", body["error"])

	code, body = e.do(t, http.MethodPost, "/api/users/login", "", creds)
	require.Equal(t, http.StatusOK, code)
	session := body["token"].(string)

	code, body = e.do(t, http.MethodGet, "/api/users/current", session, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "starter", body["subscription"])

	code, body = e.do(t, http.MethodPost, "/api/users/logout", session, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logout success", body["message"])

	code, body = e.do(t, http.MethodGet, "/api/users/current", session, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Not authorized", body["error"])
}

func TestUsers_Resend(t *testing.T) {
	e := newEnv(t)

	code, _ := e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{"email": "b@x.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, code)
	first := e.box.lastToken(t)

	code, body := e.do(t, http.MethodPost, "/api/users/verify", "", map[string]string{"email": "b@x.com"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Verification email sent", body["message"])
	assert.Equal(t, first, e.box.lastToken(t))

	code, _ = e.do(t, http.MethodPost, "/api/users/verify", "", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(t, http.MethodPost, "/api/users/verify", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUsers_RegisterValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing email", body: map[string]string{"password": "pw"}},
		{name: "bad email", body: map[string]string{"email": "nope", "password": "pw"}},
		{name: "missing password", body: map[string]string{"email": "a@x.com"}},
		{name: "unknown subscription", body: map[string]string{"email": "a@x.com", "password": "pw", "subscription": "gold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := e.do(t, http.MethodPost, "/api/users/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Error", body["status"])
		})
	}
}

func TestUsers_RegisterSubscription(t *testing.T) {
	e := newEnv(t)

	for _, plan := range models.Subscriptions {
		code, body := e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
			"email": plan + "@x.com", "password": "pw", "subscription": plan,
		})
		require.Equal(t, http.StatusCreated, code, plan)
		assert.Equal(t, plan, body["subscription"])
	}

	_, body := e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"email": "gold@x.com", "password": "pw", "subscription": "gold",
	})
	assert.Equal(t, "field Subscription must be one of: starter pro business", body["error"])
}

func TestUsers_AuthRequired(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/api/users/current", "/api/contacts/"} {
		code, body := e.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, "Not authorized", body["error"], path)

		code, _ = e.do(t, http.MethodGet, path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func (e *env) upload(t *testing.T, token, field, filename string, content []byte) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPatch, e.srv.URL+"/api/users/avatars", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return e.send(t, req, token)
}

func TestUsers_Avatar(t *testing.T) {
	e := newEnv(t)
	session := e.signUp(t, "a@x.com", "pw")

	code, body := e.upload(t, session, "avatar", "me.png", pngBytes(t, 400, 300))
	require.Equal(t, http.StatusOK, code, body)

	avatarURL := body["avatarURL"].(string)
	assert.True(t, strings.HasPrefix(avatarURL, "avatars/"))
	assert.True(t, strings.HasSuffix(avatarURL, "_me.png"))

	res, err := http.Get(e.srv.URL + "/" + avatarURL)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))

	cfg, err := png.DecodeConfig(res.Body)
	require.NoError(t, err)
	assert.Equal(t, avatar.DefaultSize, cfg.Width)
	assert.Equal(t, avatar.DefaultSize, cfg.Height)

	code, body = e.upload(t, session, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No file attached", body["error"])

	code, body = e.upload(t, session, "avatar", "blob", pngBytes(t, 40, 30))
	require.Equal(t, http.StatusOK, code, body)

	blobURL := body["avatarURL"].(string)
	assert.True(t, strings.HasSuffix(blobURL, "_blob.png"), blobURL)

	blob, err := http.Get(e.srv.URL + "/" + blobURL)
	require.NoError(t, err)
	defer blob.Body.Close()
	require.Equal(t, http.StatusOK, blob.StatusCode)
	assert.Equal(t, "image/png", blob.Header.Get("Content-Type"))

	code, _ = e.upload(t, session, "avatar", "fake.png", []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.upload(t, "", "avatar", "me.png", pngBytes(t, 10, 10))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = e.do(t, http.MethodGet, "/avatars/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestContacts(t *testing.T) {
	e := newEnv(t)
	alice := e.signUp(t, "alice@x.com", "pw")
	bob := e.signUp(t, "bob@x.com", "pw")

	code, body := e.do(t, http.MethodPost, "/api/contacts/", alice, map[string]any{
		"name": "Ann", "email": "ann@x.com", "phone": "123",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, false, body["favorite"])
	id := int64(body["id"].(float64))
	path := "/api/contacts/" + jsonNumber(id)

	code, _ = e.do(t, http.MethodPost, "/api/contacts/", alice, map[string]any{"name": "NoPhone", "email": "n@x.com"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(t, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ann", body["name"])

	code, body = e.do(t, http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Contact with id:"+jsonNumber(id)+" not found", body["error"])

	code, body = e.do(t, http.MethodGet, "/api/contacts/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "abc is not valid id", body["error"])

	code, body = e.do(t, http.MethodPut, path, alice, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Body must have at least one field", body["error"])

	code, body = e.do(t, http.MethodPut, path, alice, map[string]any{"phone": "456"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "456", body["phone"])

	code, body = e.do(t, http.MethodPatch, path+"/favorite", alice, map[string]any{"favorite": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["favorite"])

	code, _ = e.do(t, http.MethodPatch, path+"/favorite", alice, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/api/contacts/?page=0", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/api/contacts/?page=4611686018427387904&limit=4", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/api/contacts/?limit=101", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	list := e.list(t, alice, "")
	assert.Len(t, list, 1)
	assert.Empty(t, e.list(t, bob, ""))
	assert.Empty(t, e.list(t, alice, "?page=2&limit=1"))

	code, _ = e.do(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = e.do(t, http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Delete success", body["message"])

	code, _ = e.do(t, http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func (e *env) list(t *testing.T, token, query string) []models.Contact {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/api/contacts/"+query, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out []models.Contact
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))

	return out
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)

	return string(b)
}
