package session

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"

	"playlist/models"
)

// jarURL is the origin httptest.NewRequest targets. The jar ignores the
// host-less URL on the request itself.
var jarURL = &url.URL{Scheme: "http", Host: "example.com", Path: "/"}

type client struct {
	t   *testing.T
	app *fiber.App
	jar *cookiejar.Jar
}

func newClient(t *testing.T, app *fiber.App) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &client{t: t, app: app, jar: jar}
}

func (c *client) get(path string) string {
	c.t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range c.jar.Cookies(jarURL) {
		req.AddCookie(ck)
	}

	resp, err := c.app.Test(req)
	if err != nil {
		c.t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	c.jar.SetCookies(jarURL, resp.Cookies())
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func testApp(m *Manager) *fiber.App {
	app := fiber.New()

	app.Get("/login/:id", func(c *fiber.Ctx) error {
		id, _ := strconv.ParseInt(c.Params("id"), 10, 64)
		return m.Login(c, id, models.Flash{Level: models.FlashSuccess, Message: "welcome"})
	})
	app.Get("/logout", func(c *fiber.Ctx) error {
		return m.Logout(c)
	})
	app.Get("/logout-flash", func(c *fiber.Ctx) error {
		return m.Logout(c, models.Flash{Level: models.FlashInfo, Message: "bye"})
	})
	app.Get("/forget", func(c *fiber.Ctx) error {
		return m.Forget(c)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, ok, err := m.UserID(c)
		if err != nil {
			return err
		}
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(strconv.FormatInt(id, 10))
	})
	app.Get("/flash/:msg", func(c *fiber.Ctx) error {
		return m.AddFlash(c, models.FlashWarning, c.Params("msg"))
	})
	app.Get("/flashes", func(c *fiber.Ctx) error {
		flashes, err := m.Flashes(c)
		if err != nil {
			return err
		}
		out := ""
		for _, f := range flashes {
			out += f.Level + ":" + f.Message + ";"
		}
		return c.SendString(out)
	})

	return app
}

func TestManager(t *testing.T) {
	t.Run("LoginLogout", func(t *testing.T) {
		c := newClient(t, testApp(NewManager(Config{})))

		if got := c.get("/whoami"); got != "anonymous" {
			t.Errorf("expected anonymous, got %q", got)
		}

		c.get("/login/7")
		if got := c.get("/whoami"); got != "7" {
			t.Errorf("expected 7, got %q", got)
		}

		if got := c.get("/flashes"); got != "success:welcome;" {
			t.Errorf("expected login flash, got %q", got)
		}

		c.get("/logout")
		if got := c.get("/whoami"); got != "anonymous" {
			t.Errorf("expected anonymous after logout, got %q", got)
		}
	})

	t.Run("LogoutWithFlash", func(t *testing.T) {
		c := newClient(t, testApp(NewManager(Config{})))

		c.get("/login/7")
		c.get("/logout-flash")

		if got := c.get("/whoami"); got != "anonymous" {
			t.Errorf("expected anonymous after logout, got %q", got)
		}
		if got := c.get("/flashes"); got != "success:welcome;info:bye;" && got != "info:bye;" {
			t.Errorf("unexpected flashes %q", got)
		}
	})

	t.Run("LoginRotatesSessionID", func(t *testing.T) {
		c := newClient(t, testApp(NewManager(Config{})))

		c.get("/flash/hi")
		before := c.jar.Cookies(jarURL)

		c.get("/login/1")
		after := c.jar.Cookies(jarURL)

		if len(before) != 1 || len(after) != 1 {
			t.Fatalf("expected one session cookie, got %v and %v", before, after)
		}
		if before[0].Value == after[0].Value {
			t.Error("expected session id to change on login")
		}
	})

	t.Run("Flashes", func(t *testing.T) {
		c := newClient(t, testApp(NewManager(Config{})))

		c.get("/flash/one")
		c.get("/flash/two")

		if got := c.get("/flashes"); got != "warning:one;warning:two;" {
			t.Errorf("unexpected flashes %q", got)
		}
		if got := c.get("/flashes"); got != "" {
			t.Errorf("expected flashes to be cleared, got %q", got)
		}
	})

	t.Run("Forget", func(t *testing.T) {
		c := newClient(t, testApp(NewManager(Config{})))

		c.get("/login/3")
		c.get("/forget")
		if got := c.get("/whoami"); got != "anonymous" {
			t.Errorf("expected anonymous after forget, got %q", got)
		}
	})

	t.Run("SeparateClients", func(t *testing.T) {
		app := testApp(NewManager(Config{}))
		alice := newClient(t, app)
		bob := newClient(t, app)

		alice.get("/login/1")
		bob.get("/login/2")

		if got := alice.get("/whoami"); got != "1" {
			t.Errorf("expected alice to be 1, got %q", got)
		}
		if got := bob.get("/whoami"); got != "2" {
			t.Errorf("expected bob to be 2, got %q", got)
		}
	})
}
