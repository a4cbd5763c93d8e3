package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"evernote-drive/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

var (
	errStateMismatch = errors.New("authorization response state does not match")
	errMissingCode   = errors.New("authorization code not found in redirect URL")
)

const successPage = `<!doctype html><html><head><title>evernote-drive</title></head>` +
	`<body style="font-family:sans-serif"><p>Authorization complete. You can close this window.</p></body></html>`

// callbackResult carries either the authorization code or the reason there is none
type callbackResult struct {
	code string
	err  error
}

// newCallbackApp serves the single redirect route of the loopback flow.
// The first result is delivered on results; later requests are answered but dropped.
func newCallbackApp(path, state string, results chan<- callbackResult, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(
		recover.New(),
		middleware.StructuredLogger(logger),
		middleware.Security(),
	)

	app.Get(path, callbackHandler(state, results))

	return app
}

func callbackHandler(state string, results chan<- callbackResult) fiber.Handler {
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	return func(c *fiber.Ctx) error {
		if reason := c.Query("error"); reason != "" {
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", reason)})
			return c.Status(fiber.StatusBadRequest).SendString("Authorization failed: " + reason)
		}

		if c.Query("state") != state {
			deliver(callbackResult{err: errStateMismatch})
			return c.Status(fiber.StatusBadRequest).SendString("Invalid state parameter")
		}

		code := c.Query("code")
		if code == "" {
			deliver(callbackResult{err: errMissingCode})
			return c.Status(fiber.StatusBadRequest).SendString("Authorization code not found")
		}

		deliver(callbackResult{code: code})
		c.Type("html")
		return c.SendString(successPage)
	}
}
