package stories_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/storyhub"
	"github.com/goliatone/storyhub/middleware/jwtware"
	"github.com/goliatone/storyhub/stories"
)

// memStories is an in-memory Stories store for handler tests. The embedded
// Repository is nil: nothing in the handlers reaches past the narrow surface.
type memStories struct {
	stories.Stories

	mu      sync.Mutex
	records map[uuid.UUID]*stories.Story
}

func newMemStories() *memStories {
	return &memStories{records: map[uuid.UUID]*stories.Story{}}
}

func (m *memStories) FindByID(_ context.Context, id uuid.UUID) (*stories.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	story, ok := m.records[id]
	if !ok {
		return nil, stories.ErrStoryNotFound
	}
	clone := *story
	return &clone, nil
}

func (m *memStories) Insert(_ context.Context, story *stories.Story) (*stories.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	if story.Status == "" {
		story.Status = stories.StatusNew
	}

	clone := *story
	m.records[story.ID] = &clone
	return story, nil
}

func (m *memStories) Save(_ context.Context, story *stories.Story) (*stories.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[story.ID]; !ok {
		return nil, stories.ErrStoryNotFound
	}
	clone := *story
	m.records[story.ID] = &clone
	return story, nil
}

func (m *memStories) ListByStatus(_ context.Context, status stories.Status) ([]*stories.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*stories.Story{}
	for _, story := range m.records {
		if story.Status == status {
			clone := *story
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStories) ListByAuthor(_ context.Context, authorID uuid.UUID) ([]*stories.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*stories.Story{}
	for _, story := range m.records {
		if story.AuthorID == authorID {
			clone := *story
			out = append(out, &clone)
		}
	}
	return out, nil
}

// memAuthors resolves authors for notifications.
type memAuthors struct {
	accounts map[uuid.UUID]*storyhub.Account
}

func (m memAuthors) FindByID(_ context.Context, id uuid.UUID) (*storyhub.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, storyhub.ErrAccountNotFound
	}
	return account, nil
}

type capturedEmail struct {
	To      string
	Subject string
	Body    string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []capturedEmail
}

func (m *captureMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, capturedEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

type fixture struct {
	app     *fiber.App
	repo    *memStories
	mail    *captureMailer
	tokens  *storyhub.TokenService
	author  *storyhub.Account
	admin   *storyhub.Account
	authors memAuthors
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := storyhub.NewTokenService([]byte("test-secret"), "storyhub-test", nil)
	require.NoError(t, err)

	author := &storyhub.Account{
		ID:             uuid.New(),
		Username:       "author",
		Email:          "author@example.com",
		EmailConfirmed: true,
		Active:         true,
	}
	admin := &storyhub.Account{
		ID:             uuid.New(),
		Username:       "root",
		Email:          "root@example.com",
		Admin:          true,
		EmailConfirmed: true,
		Active:         true,
	}

	repo := newMemStories()
	mail := &captureMailer{}
	authors := memAuthors{accounts: map[uuid.UUID]*storyhub.Account{
		author.ID: author,
		admin.ID:  admin,
	}}

	controller := stories.NewController(
		stories.WithRepository(repo),
		stories.WithAuthorDirectory(authors),
		stories.WithMailer(mail),
	)

	app := fiber.New()
	stories.RegisterStoryRoutes(app,
		jwtware.New(storyhub.SessionGuard(tokens)),
		jwtware.New(storyhub.AdminGuard(tokens)),
		controller,
	)

	return &fixture{
		app:     app,
		repo:    repo,
		mail:    mail,
		tokens:  tokens,
		author:  author,
		admin:   admin,
		authors: authors,
	}
}

func (f *fixture) sessionToken(t *testing.T, account *storyhub.Account) string {
	t.Helper()

	token, err := f.tokens.IssueSession(account)
	require.NoError(t, err)
	return token
}

func (f *fixture) request(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSubmitStory(t *testing.T) {
	f := newFixture(t)
	token := f.sessionToken(t, f.author)

	resp := f.request(t, http.MethodPost, "/stories", token, map[string]any{
		"title":        "My First Story",
		"body":         "Once upon a time...",
		"tags":         []string{"fiction", "short"},
		"is_anonymous": true,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var story stories.Story
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&story))
	resp.Body.Close()

	assert.Equal(t, f.author.ID, story.AuthorID)
	assert.Equal(t, stories.StatusNew, story.Status)
	assert.Equal(t, []string{"fiction", "short"}, story.Tags)
	assert.True(t, story.Anonymous)

	// unauthenticated submission is rejected
	resp = f.request(t, http.MethodPost, "/stories", "", map[string]any{
		"title": "No Token",
		"body":  "...",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// missing title is a validation error
	resp = f.request(t, http.MethodPost, "/stories", token, map[string]any{
		"body": "no title",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	token := f.sessionToken(t, f.author)

	for _, title := range []string{"One", "Two"} {
		resp := f.request(t, http.MethodPost, "/stories", token, map[string]any{
			"title": title,
			"body":  "...",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// another author's story is not listed
	_, err := f.repo.Insert(context.Background(), &stories.Story{
		AuthorID: uuid.New(),
		Title:    "Someone Else's",
		Body:     "...",
	})
	require.NoError(t, err)

	resp := f.request(t, http.MethodGet, "/stories/mine", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Stories []stories.Story `json:"stories"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Len(t, body.Stories, 2)
}

func TestListByStatusRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	authorToken := f.sessionToken(t, f.author)
	resp := f.request(t, http.MethodGet, "/admin/stories?status=new", authorToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminToken := f.sessionToken(t, f.admin)
	resp = f.request(t, http.MethodGet, "/admin/stories?status=new", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/admin/stories?status=bogus", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangeStatusNotifiesAuthor(t *testing.T) {
	f := newFixture(t)
	adminToken := f.sessionToken(t, f.admin)

	story, err := f.repo.Insert(context.Background(), &stories.Story{
		AuthorID: f.author.ID,
		Title:    "The Great Tale",
		Body:     "...",
	})
	require.NoError(t, err)

	resp := f.request(t, http.MethodPatch, "/admin/stories/"+story.ID.String()+"/status", adminToken, map[string]any{
		"status": "published",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, f.author.Email, f.mail.sent[0].To)
	assert.Contains(t, f.mail.sent[0].Body, "The Great Tale")

	// moving to pending is silent
	resp = f.request(t, http.MethodPatch, "/admin/stories/"+story.ID.String()+"/status", adminToken, map[string]any{
		"status": "pending",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, f.mail.sent, 1)

	// rejection notifies again
	resp = f.request(t, http.MethodPatch, "/admin/stories/"+story.ID.String()+"/status", adminToken, map[string]any{
		"status": "rejected",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, f.mail.sent, 2)
	assert.Equal(t, stories.StatusRejected.String(), "rejected")

	// unknown story and bogus status are client errors
	resp = f.request(t, http.MethodPatch, "/admin/stories/"+uuid.NewString()+"/status", adminToken, map[string]any{
		"status": "published",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.request(t, http.MethodPatch, "/admin/stories/"+story.ID.String()+"/status", adminToken, map[string]any{
		"status": "bogus",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangeStatusIdempotent(t *testing.T) {
	f := newFixture(t)
	adminToken := f.sessionToken(t, f.admin)

	story, err := f.repo.Insert(context.Background(), &stories.Story{
		AuthorID: f.author.ID,
		Title:    "Repeat",
		Body:     "...",
		Status:   stories.StatusPublished,
	})
	require.NoError(t, err)

	// re-applying the current status does not re-notify
	resp := f.request(t, http.MethodPatch, "/admin/stories/"+story.ID.String()+"/status", adminToken, map[string]any{
		"status": "published",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, f.mail.sent)
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"new", "pending", "published", "on-hold", "rejected"} {
		status, ok := stories.ParseStatus(valid)
		assert.True(t, ok)
		assert.Equal(t, valid, status.String())
	}

	_, ok := stories.ParseStatus("draft")
	assert.False(t, ok)
}
