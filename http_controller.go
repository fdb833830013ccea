package storyhub

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// RegisterAuthRoutes mounts the public identity endpoints. None of them
// require a bearer token; email confirmation carries its own.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	app.Post("/auth/signup", controller.Signup)
	app.Get("/auth/confirm-email", controller.ConfirmEmail)
	app.Post("/auth/resend-confirmation", controller.ResendConfirmation)
	app.Post("/auth/login", controller.Login)
}

// RegisterTokenRoutes mounts the reissue endpoint behind the given session
// guard.
func RegisterTokenRoutes(app fiber.Router, guard fiber.Handler, controller *AuthController) {
	app.Post("/auth/token/reissue", guard, controller.Reissue)
}

type AuthController struct {
	Debug     bool
	Logger    Logger
	Lifecycle *Lifecycle
	Auther    *Authenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Lifecycle == nil {
		panic("Missing Lifecycle in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

func WithControllerLifecycle(l *Lifecycle) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Lifecycle = l
		return c
	}
}

func WithControllerAuthenticator(a *Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = l
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// SignupPayload is the registration body.
type SignupPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(0, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) Signup(ctx *fiber.Ctx) error {
	payload := new(SignupPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload: ", "error", err)
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload.Email))
		fmt.Println("==========================")
	}

	account, err := a.Lifecycle.Register(ctx.UserContext(), RegisterMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(account.Summary())
}

func (a *AuthController) ConfirmEmail(ctx *fiber.Ctx) error {
	raw := ctx.Query("token")
	if raw == "" {
		return badRequest(ctx, "missing confirmation token")
	}

	account, status, err := a.Lifecycle.ConfirmEmail(ctx.UserContext(), raw)
	if err != nil {
		if IsTokenError(err) {
			return badRequest(ctx, "invalid or expired confirmation token")
		}
		return a.respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"account":           account.Summary(),
		"already_confirmed": status == ConfirmAlreadyDone,
	})
}

// ResendConfirmationPayload identifies the account by email.
type ResendConfirmationPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ResendConfirmationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ResendConfirmation(ctx *fiber.Ctx) error {
	payload := new(ResendConfirmationPayload)

	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	err := a.Lifecycle.ResendConfirmation(ctx.UserContext(), payload.Email)
	if err != nil && !IsAccountNotFound(err) {
		return a.respondError(ctx, err)
	}

	// uniform response so the endpoint cannot be used to probe addresses
	return ctx.JSON(fiber.Map{"sent": true})
}

// LoginPayload is the credential body.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(ctx *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return badRequest(ctx, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"validation": err,
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload.Email))
		fmt.Println("=========================")
	}

	result, err := a.Auther.Login(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(result)
}

func (a *AuthController) Reissue(ctx *fiber.Ctx) error {
	claims, ok := GetClaims(ctx.UserContext())
	if !ok {
		return a.respondError(ctx, ErrMissingToken)
	}

	result, err := a.Auther.Reissue(ctx.UserContext(), claims)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(result)
}

// respondError maps domain errors to HTTP statuses. Anything unrecognized
// is a 500 with no internals leaked.
func (a *AuthController) respondError(ctx *fiber.Ctx, err error) error {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		a.Logger.Error("unhandled error: ", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	status := fiber.StatusInternalServerError
	switch rich.TextCode {
	case TextCodeDuplicateEmail, TextCodeDuplicateUsername, TextCodeInvalidRole, TextCodeEmptyPassword:
		status = fiber.StatusBadRequest
	case TextCodeInvalidCredentials, TextCodeEmailUnconfirmed, TextCodeMissingToken,
		TextCodeTokenExpired, TextCodeTokenMalformed, TextCodeTokenSignature, TextCodeTokenPurpose:
		status = fiber.StatusUnauthorized
	case TextCodeAccountInactive, TextCodeAdminRequired:
		status = fiber.StatusForbidden
	case TextCodeAccountNotFound:
		status = fiber.StatusNotFound
	default:
		a.Logger.Error("unhandled domain error: ", "error", err)
	}

	return ctx.Status(status).JSON(fiber.Map{
		"error": rich.Message,
		"code":  rich.TextCode,
	})
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
