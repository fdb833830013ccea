package storyhub

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goliatone/storyhub/mailer"
)

// RegisterAdminRoutes mounts the user management endpoints. The guard is
// expected to be an admin-gated middleware; the controller still re-checks
// nothing here, capability policy is the guard's job.
func RegisterAdminRoutes(app fiber.Router, guard fiber.Handler, controller *AdminController) {
	grp := app.Group("/admin", guard)

	grp.Get("/users", controller.ListUsers)
	grp.Post("/users", controller.CreateUser)
	grp.Delete("/users/:id", controller.DeleteUser)
	grp.Get("/users/:id/last-login", controller.LastLogin)
	grp.Patch("/users/:id/active", controller.SetActive)
	grp.Patch("/users/:id/role", controller.SetRole)
	grp.Post("/users/:id/email", controller.SendEmail)
	grp.Patch("/password", controller.ChangePassword)
}

// AccountAdminStore is the identity-store surface the admin endpoints need
// beyond the base lookups. The bun-backed Accounts repository satisfies it.
type AccountAdminStore interface {
	AccountStore

	ListAll(ctx context.Context) ([]*Account, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type AdminController struct {
	Logger    Logger
	Accounts  AccountAdminStore
	Lifecycle *Lifecycle
	Mailer    mailer.Mailer
}

type AdminControllerOption func(*AdminController) *AdminController

func NewAdminController(opts ...AdminControllerOption) *AdminController {
	c := &AdminController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts repository in admin controller...")
	}

	if c.Lifecycle == nil {
		panic("Missing Lifecycle in admin controller...")
	}

	return c
}

func WithAdminAccounts(repo AccountAdminStore) AdminControllerOption {
	return func(c *AdminController) *AdminController {
		c.Accounts = repo
		return c
	}
}

func WithAdminLifecycle(l *Lifecycle) AdminControllerOption {
	return func(c *AdminController) *AdminController {
		c.Lifecycle = l
		return c
	}
}

func WithAdminMailer(m mailer.Mailer) AdminControllerOption {
	return func(c *AdminController) *AdminController {
		c.Mailer = m
		return c
	}
}

func WithAdminLogger(l Logger) AdminControllerOption {
	return func(c *AdminController) *AdminController {
		c.Logger = l
		return c
	}
}

func (a *AdminController) ListUsers(ctx *fiber.Ctx) error {
	accounts, err := a.Accounts.ListAll(ctx.UserContext())
	if err != nil {
		return a.respondError(ctx, err)
	}

	out := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, account.Summary())
	}

	return ctx.JSON(fiber.Map{"users": out})
}

// CreateUserPayload lets an admin provision an account directly. Admin
// created accounts skip the email handshake when confirmed is set.
type CreateUserPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Admin     bool   `json:"admin"`
	Confirmed bool   `json:"confirmed"`
}

// Validate will run validation rules
func (r CreateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(0, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AdminController) CreateUser(ctx *fiber.Ctx) error {
	payload := new(CreateUserPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	role, ok := ParseRole(payload.Role)
	if !ok {
		return a.respondError(ctx, ErrInvalidRole)
	}

	account, err := a.Lifecycle.Register(ctx.UserContext(), RegisterMessage{
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		Role:      role,
		Admin:     payload.Admin,
		Confirmed: payload.Confirmed,
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(account.Summary())
}

func (a *AdminController) DeleteUser(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "invalid account id")
	}

	if err := a.Accounts.DeleteByID(ctx.UserContext(), id); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// LastLogin reports when the account last authenticated. Null until the
// first successful login.
func (a *AdminController) LastLogin(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "invalid account id")
	}

	account, err := a.Accounts.FindByID(ctx.UserContext(), id)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"last_login_at": account.LastLoginAt})
}

// SetActivePayload toggles the account's active flag.
type SetActivePayload struct {
	Active *bool `json:"active"`
}

// Validate will run validation rules
func (r SetActivePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Active, validation.NotNil),
	)
}

func (a *AdminController) SetActive(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "invalid account id")
	}

	payload := new(SetActivePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	account, err := a.Lifecycle.SetActive(ctx.UserContext(), a.actor(ctx), id, *payload.Active)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(account.Summary())
}

// SetRolePayload assigns one of the known roles.
type SetRolePayload struct {
	Role string `json:"role"`
}

func (a *AdminController) SetRole(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "invalid account id")
	}

	payload := new(SetRolePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	role, ok := ParseRole(payload.Role)
	if !ok {
		return a.respondError(ctx, ErrInvalidRole)
	}

	account, err := a.Lifecycle.SetRole(ctx.UserContext(), a.actor(ctx), id, role)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(account.Summary())
}

// SendEmailPayload carries an ad-hoc message to a managed account.
type SendEmailPayload struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate will run validation rules
func (r SendEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subject, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Message, validation.Required),
	)
}

func (a *AdminController) SendEmail(ctx *fiber.Ctx) error {
	if a.Mailer == nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "mail delivery is not configured",
		})
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "invalid account id")
	}

	payload := new(SendEmailPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	account, err := a.Accounts.FindByID(ctx.UserContext(), id)
	if err != nil {
		return a.respondError(ctx, err)
	}

	body := mailer.MessageBody(account.Username, payload.Message)
	if err := a.Mailer.Send(ctx.UserContext(), account.Email, payload.Subject, body); err != nil {
		a.Logger.Error("admin email delivery: ", "error", err)
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "delivery failed",
			"code":  TextCodeNotificationFailed,
		})
	}

	return ctx.JSON(fiber.Map{"sent": true})
}

// ChangePasswordPayload rotates the calling admin's own credential.
type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate will run validation rules
func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AdminController) ChangePassword(ctx *fiber.Ctx) error {
	claims, ok := GetClaims(ctx.UserContext())
	if !ok {
		return a.respondError(ctx, ErrMissingToken)
	}

	id, err := claims.AccountUUID()
	if err != nil {
		return a.respondError(ctx, ErrTokenMalformed)
	}

	payload := new(ChangePasswordPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	if err := a.Lifecycle.ChangePassword(ctx.UserContext(), id, payload.CurrentPassword, payload.NewPassword); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"changed": true})
}

func (a *AdminController) actor(ctx *fiber.Ctx) ActorRef {
	if claims, ok := GetClaims(ctx.UserContext()); ok {
		return ActorRef{ID: claims.AccountID(), Type: "admin"}
	}
	return ActorRef{Type: "admin"}
}

func (a *AdminController) respondError(ctx *fiber.Ctx, err error) error {
	controller := AuthController{Logger: a.Logger}
	return controller.respondError(ctx, err)
}
