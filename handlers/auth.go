package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"playlist/models"
	"playlist/share"
	"playlist/store"
)

var msgRegisterTooLong = fmt.Sprintf(
	"Usernames are limited to %d characters, emails to %d and passwords to %d bytes.",
	models.MaxUsernameLen, models.MaxEmailLen, models.MaxPasswordLen)

// RegisterForm shows the registration form.
func (h *Handler) RegisterForm(c *fiber.Ctx) error {
	return h.render(c, "register", fiber.Map{"Title": "Register", "Form": models.RegisterInput{}})
}

// Register creates a new user with a fresh share token.
func (h *Handler) Register(c *fiber.Ctx) error {
	// Parse and tidy the submitted form
	var in models.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.Normalize()

	// Failures show the form again with what was typed, minus the password
	form := func(msg models.Flash) error {
		in.Password = ""
		return h.render(c, "register", fiber.Map{"Title": "Register", "Form": in}, msg)
	}

	if !in.Complete() {
		return form(warning("Please fill out all fields."))
	}
	if in.TooLong() {
		return form(warning(msgRegisterTooLong))
	}
	if !in.UsernameAllowed() {
		return form(warning("Usernames cannot contain @."))
	}

	ctx := c.UserContext()

	// Check both unique fields up front for a precise message
	taken, err := h.Store.UsernameTaken(ctx, in.Username)
	if err != nil {
		return err
	}
	if taken {
		return form(danger("Username already exists."))
	}

	taken, err = h.Store.EmailTaken(ctx, in.Email)
	if err != nil {
		return err
	}
	if taken {
		return form(danger("Email already registered."))
	}

	// Hash the password; the plain text is never stored
	hash, err := h.Hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		ShareToken:   share.NewToken(),
	}
	// The checks above can race with a concurrent registration; the unique
	// constraints have the final word.
	if err := h.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return form(danger("Username or email already exists."))
		}
		return err
	}

	h.Log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")

	return h.redirect(c, "/login", models.FlashSuccess, "Registration successful. Please log in.")
}

// LoginForm shows the login form.
func (h *Handler) LoginForm(c *fiber.Ctx) error {
	return h.render(c, "login", fiber.Map{"Title": "Log in", "Form": models.LoginInput{}})
}

// Login checks the credentials and establishes a session.
func (h *Handler) Login(c *fiber.Ctx) error {
	// Parse the form; the identifier is a username or an email
	var in models.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.Identifier = strings.TrimSpace(in.Identifier)

	form := func(msg models.Flash) error {
		in.Password = ""
		return h.render(c, "login", fiber.Map{"Title": "Log in", "Form": in}, msg)
	}

	if in.Identifier == "" || in.Password == "" {
		return form(warning("Please enter your username and password."))
	}

	// Find the account
	user, err := h.Store.UserByLogin(c.UserContext(), in.Identifier)
	if errors.Is(err, store.ErrNotFound) {
		return form(danger("No account found with that username or email."))
	}
	if err != nil {
		return err
	}

	// Compare the password with the stored hash
	if !h.Hasher.Verify(in.Password, user.PasswordHash) {
		h.Log.Info().Int64("user_id", user.ID).Msg("login failed")
		return form(danger("Incorrect password."))
	}

	// Start a fresh session for the user
	welcome := models.Flash{Level: models.FlashSuccess, Message: "Welcome back, " + user.Username + "!"}
	if err := h.Sessions.Login(c, user.ID, welcome); err != nil {
		return err
	}

	h.Log.Info().Int64("user_id", user.ID).Msg("user logged in")

	return c.Redirect("/")
}

// LogoutForm asks for confirmation before logging out.
func (h *Handler) LogoutForm(c *fiber.Ctx) error {
	return h.render(c, "logout", fiber.Map{"Title": "Log out"})
}

// Logout clears the session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	bye := models.Flash{Level: models.FlashInfo, Message: "You have been logged out."}
	if err := h.Sessions.Logout(c, bye); err != nil {
		return err
	}
	return c.Redirect("/")
}
