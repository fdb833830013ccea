package stories

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/storyhub"
	"github.com/goliatone/storyhub/mailer"
)

// AuthorDirectory resolves a story's author for outcome notifications. The
// identity store satisfies it.
type AuthorDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*storyhub.Account, error)
}

// RegisterStoryRoutes mounts the submission pipeline. The session guard
// protects submission and listing one's own stories; review endpoints go
// behind the admin guard.
func RegisterStoryRoutes(app fiber.Router, sessionGuard, adminGuard fiber.Handler, controller *Controller) {
	app.Post("/stories", sessionGuard, controller.Submit)
	app.Get("/stories/mine", sessionGuard, controller.ListMine)

	app.Get("/admin/stories", adminGuard, controller.ListByStatus)
	app.Patch("/admin/stories/:id/status", adminGuard, controller.ChangeStatus)
}

type Controller struct {
	Logger  storyhub.Logger
	Repo    Stories
	Authors AuthorDirectory
	Mailer  mailer.Mailer
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing Stories repository in stories controller...")
	}

	return c
}

func WithRepository(repo Stories) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithAuthorDirectory(authors AuthorDirectory) ControllerOption {
	return func(c *Controller) *Controller {
		c.Authors = authors
		return c
	}
}

func WithMailer(m mailer.Mailer) ControllerOption {
	return func(c *Controller) *Controller {
		c.Mailer = m
		return c
	}
}

func WithLogger(l storyhub.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = l
		return c
	}
}

// SubmitPayload is a new story submission.
type SubmitPayload struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Anonymous bool     `json:"is_anonymous"`
}

// Validate will run validation rules
func (r SubmitPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Body, validation.Required),
		validation.Field(&r.Tags, validation.Each(validation.Length(1, 40))),
	)
}

func (c *Controller) Submit(ctx *fiber.Ctx) error {
	claims, ok := storyhub.GetClaims(ctx.UserContext())
	if !ok {
		return c.respondError(ctx, storyhub.ErrMissingToken)
	}

	authorID, err := claims.AccountUUID()
	if err != nil {
		return c.respondError(ctx, storyhub.ErrTokenMalformed)
	}

	payload := new(SubmitPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	story, err := c.Repo.Insert(ctx.UserContext(), &Story{
		AuthorID:  authorID,
		Title:     payload.Title,
		Body:      payload.Body,
		Tags:      payload.Tags,
		Anonymous: payload.Anonymous,
		Status:    StatusNew,
	})
	if err != nil {
		return c.respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(story)
}

func (c *Controller) ListMine(ctx *fiber.Ctx) error {
	claims, ok := storyhub.GetClaims(ctx.UserContext())
	if !ok {
		return c.respondError(ctx, storyhub.ErrMissingToken)
	}

	authorID, err := claims.AccountUUID()
	if err != nil {
		return c.respondError(ctx, storyhub.ErrTokenMalformed)
	}

	records, err := c.Repo.ListByAuthor(ctx.UserContext(), authorID)
	if err != nil {
		return c.respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"stories": records})
}

func (c *Controller) ListByStatus(ctx *fiber.Ctx) error {
	status, ok := ParseStatus(ctx.Query("status", StatusNew.String()))
	if !ok {
		return c.respondError(ctx, ErrInvalidStatus)
	}

	records, err := c.Repo.ListByStatus(ctx.UserContext(), status)
	if err != nil {
		return c.respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"stories": records})
}

// ChangeStatusPayload moves a story through the review workflow.
type ChangeStatusPayload struct {
	Status string `json:"status"`
}

func (c *Controller) ChangeStatus(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid story id",
		})
	}

	payload := new(ChangeStatusPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	status, ok := ParseStatus(payload.Status)
	if !ok {
		return c.respondError(ctx, ErrInvalidStatus)
	}

	story, err := c.Repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return c.respondError(ctx, err)
	}

	if story.Status != status {
		story.Status = status
		if story, err = c.Repo.Save(ctx.UserContext(), story); err != nil {
			return c.respondError(ctx, err)
		}

		// outcome notifications are best effort, the decision stands
		// whether or not the email goes out
		c.notifyAuthor(ctx.UserContext(), story)
	}

	return ctx.JSON(story)
}

// notifyAuthor emails the author on published and rejected decisions.
func (c *Controller) notifyAuthor(ctx context.Context, story *Story) {
	if c.Mailer == nil || c.Authors == nil {
		return
	}

	var subject, body string
	switch story.Status {
	case StatusPublished:
		subject = mailer.SubjectStoryPublished
	case StatusRejected:
		subject = mailer.SubjectStoryRejected
	default:
		return
	}

	author, err := c.Authors.FindByID(ctx, story.AuthorID)
	if err != nil {
		c.logError("story notification author lookup: ", err)
		return
	}

	switch story.Status {
	case StatusPublished:
		body = mailer.StoryPublishedBody(author.Username, story.Title)
	case StatusRejected:
		body = mailer.StoryRejectedBody(author.Username, story.Title)
	}

	if err := c.Mailer.Send(ctx, author.Email, subject, body); err != nil {
		c.logError("story notification delivery: ", err)
	}
}

func (c *Controller) logError(message string, err error) {
	if c.Logger != nil {
		c.Logger.Error(message, "error", err)
	}
}

func (c *Controller) respondError(ctx *fiber.Ctx, err error) error {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		c.logError("unhandled error: ", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	status := fiber.StatusInternalServerError
	switch rich.TextCode {
	case TextCodeStoryNotFound:
		status = fiber.StatusNotFound
	case TextCodeInvalidStatus:
		status = fiber.StatusBadRequest
	case storyhub.TextCodeMissingToken, storyhub.TextCodeTokenMalformed:
		status = fiber.StatusUnauthorized
	default:
		c.logError("unhandled domain error: ", err)
	}

	return ctx.Status(status).JSON(fiber.Map{
		"error": rich.Message,
		"code":  rich.TextCode,
	})
}
