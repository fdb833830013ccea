package stories

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Stories is the bun-backed submission store.
type Stories interface {
	repository.Repository[*Story]

	FindByID(ctx context.Context, id uuid.UUID) (*Story, error)
	Insert(ctx context.Context, story *Story) (*Story, error)
	Save(ctx context.Context, story *Story) (*Story, error)
	ListByStatus(ctx context.Context, status Status) ([]*Story, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*Story, error)
}

type stories struct {
	repository.Repository[*Story]
	db *bun.DB
}

var _ Stories = (*stories)(nil)

// NewStoriesRepository builds the Stories repository on top of a bun DB.
func NewStoriesRepository(db *bun.DB) Stories {
	repo := repository.NewRepository[*Story](db, repository.ModelHandlers[*Story]{
		NewRecord: func() *Story { return &Story{} },
		GetID: func(s *Story) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Story, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &stories{
		Repository: repo,
		db:         db,
	}
}

func (s *stories) FindByID(ctx context.Context, id uuid.UUID) (*Story, error) {
	record := &Story{}

	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrStoryNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up story")
	}

	return record, nil
}

func (s *stories) Insert(ctx context.Context, story *Story) (*Story, error) {
	prepareStoryDefaults(story)

	record, err := s.Repository.CreateTx(ctx, s.db, story)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not persist story")
	}

	return record, nil
}

func (s *stories) Save(ctx context.Context, story *Story) (*Story, error) {
	if story == nil || story.ID == uuid.Nil {
		return nil, ErrStoryNotFound
	}

	now := time.Now()
	story.UpdatedAt = &now

	record, err := s.Repository.UpdateTx(ctx, s.db, story, repository.UpdateByID(story.ID.String()))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrStoryNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not update story")
	}

	return record, nil
}

func (s *stories) ListByStatus(ctx context.Context, status Status) ([]*Story, error) {
	records := []*Story{}

	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", status).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list stories")
	}

	return records, nil
}

func (s *stories) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*Story, error) {
	records := []*Story{}

	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.author_id = ?", authorID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list stories")
	}

	return records, nil
}

func prepareStoryDefaults(story *Story) {
	if story == nil {
		return
	}

	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}

	if story.Status == "" {
		story.Status = StatusNew
	}

	if story.Tags == nil {
		story.Tags = []string{}
	}

	if story.CreatedAt == nil {
		now := time.Now()
		story.CreatedAt = &now
		story.UpdatedAt = &now
	}
}
