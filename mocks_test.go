package storyhub_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/storyhub"
)

// memStore is an in-memory AccountStore used across the suite. It enforces
// email and username uniqueness the way the bun-backed store does.
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*storyhub.Account

	trackLogin   bool
	loginTracked int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[uuid.UUID]*storyhub.Account{},
	}
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*storyhub.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, account := range s.accounts {
		if account.Email == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, storyhub.ErrAccountNotFound
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*storyhub.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, storyhub.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *memStore) Insert(_ context.Context, account *storyhub.Account) (*storyhub.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return nil, storyhub.ErrDuplicateEmail
		}
		if account.Username != "" && existing.Username == account.Username {
			return nil, storyhub.ErrDuplicateUsername
		}
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.CreatedAt == nil {
		now := time.Now()
		account.CreatedAt = &now
		account.UpdatedAt = &now
	}

	clone := *account
	s.accounts[account.ID] = &clone
	return account, nil
}

func (s *memStore) Save(_ context.Context, account *storyhub.Account) (*storyhub.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return nil, storyhub.ErrAccountNotFound
	}

	clone := *account
	s.accounts[account.ID] = &clone
	return account, nil
}

// TrackSuccessfulLogin is only visible through the LoginTracker upgrade when
// trackLogin is enabled via trackerStore below.
func (s *memStore) trackSuccessfulLogin(_ context.Context, account *storyhub.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loginTracked++
	now := time.Now()
	account.LastLoginAt = &now
	if stored, ok := s.accounts[account.ID]; ok {
		stored.LastLoginAt = &now
	}
	return nil
}

func (s *memStore) ListAll(_ context.Context) ([]*storyhub.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*storyhub.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		clone := *account
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return storyhub.ErrAccountNotFound
	}
	delete(s.accounts, id)
	return nil
}

// trackerStore upgrades memStore with the LoginTracker interface.
type trackerStore struct {
	*memStore
}

func (s trackerStore) TrackSuccessfulLogin(ctx context.Context, account *storyhub.Account) error {
	return s.trackSuccessfulLogin(ctx, account)
}

// recordedEmail is a single captured delivery.
type recordedEmail struct {
	To      string
	Subject string
	Body    string
}

// recordingMailer captures deliveries; fail makes every send error.
type recordingMailer struct {
	mu   sync.Mutex
	sent []recordedEmail
	fail error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}

	m.sent = append(m.sent, recordedEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *recordingMailer) deliveries() []recordedEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]recordedEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

// recordingSink captures activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []storyhub.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event storyhub.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []storyhub.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]storyhub.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

func newTokenService(tb interface{ Fatalf(string, ...any) }, opts ...storyhub.TokenOption) *storyhub.TokenService {
	tokens, err := storyhub.NewTokenService([]byte("test-secret"), "storyhub-test", nil, opts...)
	if err != nil {
		tb.Fatalf("failed to build token service: %v", err)
	}
	return tokens
}
