package storyhub

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var trackLoginSQL = `UPDATE "accounts" AS "acc"
SET
	"last_login_at" = ?,
	"updated_at" = ?
WHERE
	"acc"."id" = ?;`

// Accounts is the bun-backed identity store. It layers the storyhub-specific
// lookups and writes over the generic repository and satisfies AccountStore.
type Accounts interface {
	repository.Repository[*Account]
	AccountStore
	LoginTracker

	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	InsertTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	SaveTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error

	ListAll(ctx context.Context) ([]*Account, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ AccountStore                    = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

// NewAccountsRepository builds the Accounts repository on top of a bun DB.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *accounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up account by email")
	}

	return record, nil
}

func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	record := &Account{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up account by id")
	}

	return record, nil
}

func (a *accounts) Insert(ctx context.Context, account *Account) (*Account, error) {
	return a.InsertTx(ctx, a.db, account)
}

func (a *accounts) InsertTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	record, err := a.Repository.CreateTx(ctx, tx, account)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	return record, nil
}

func (a *accounts) Save(ctx context.Context, account *Account) (*Account, error) {
	return a.SaveTx(ctx, a.db, account)
}

func (a *accounts) SaveTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	if account == nil || account.ID == uuid.Nil {
		return nil, ErrAccountNotFound
	}

	now := time.Now()
	account.UpdatedAt = &now

	record, err := a.Repository.UpdateTx(ctx, tx, account, repository.UpdateByID(account.ID.String()))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, mapUniqueViolation(err)
	}

	return record, nil
}

func (a *accounts) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, account)
}

func (a *accounts) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	now := time.Now()
	_, err := tx.NewRaw(trackLoginSQL, now, now, account.ID).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to track login")
	}

	account.LastLoginAt = &now
	return nil
}

func (a *accounts) ListAll(ctx context.Context) ([]*Account, error) {
	records := []*Account{}

	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list accounts")
	}

	return records, nil
}

func (a *accounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Account)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete account")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func prepareAccountDefaults(account *Account) {
	if account == nil {
		return
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	account.Email = normalizeEmail(account.Email)

	if account.CreatedAt == nil {
		now := time.Now()
		account.CreatedAt = &now
		account.UpdatedAt = &now
	}
}

// mapUniqueViolation turns the store's uniqueness failures into client
// errors; anything else stays a conflict on create.
func mapUniqueViolation(err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "accounts.email") || strings.Contains(msg, "accounts_email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "accounts.username") || strings.Contains(msg, "accounts_username"):
		return ErrDuplicateUsername
	default:
		return errors.Wrap(err, errors.CategoryConflict, "could not persist account")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
