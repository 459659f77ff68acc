package middleware

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"

	"github.com/bassista/chefs_best_friend/internal/docstore"
)

// Notifier matches honeybadger.Notify.
type Notifier func(err interface{}, extra ...interface{}) (string, error)

// HoneybadgerMiddleware sends error/warning notifications to Honeybadger.
// On panic, it notifies Honeybadger and re-panics to allow gin.Recovery to handle the response.
func HoneybadgerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		logger.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})

	logger.Info("Honeybadger error reporting is enabled.")
	return notifyingMiddleware(logger, honeybadger.Notify)
}

func notifyingMiddleware(logger *logrus.Logger, notify Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				_, _ = notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, c.Request.URL.Path),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				logger.Error("Recovered from panic, notified Honeybadger: ", rec)
				panic(rec) // propagate panic to let gin.Recovery handle it
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status < 400 || status == 404 {
			return
		}

		// Controllers attach store failures with c.Error; the kind becomes a tag.
		hbCtx := honeybadger.Context{"route": c.FullPath()}
		tags := honeybadger.Tags{"http"}
		if last := c.Errors.Last(); last != nil {
			hbCtx["error"] = last.Error()
			tags = append(tags, docstore.Kind(last.Err))
		}

		if status >= 500 {
			_, _ = notify(fmt.Sprintf("Error: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), c.Request, hbCtx, append(tags, "5XX"))
		} else {
			// 4xx are warnings: no request payload
			_, _ = notify(fmt.Sprintf("Warning: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), hbCtx, append(tags, "4XX"))
		}
		logger.Warnf("Honeybadger reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
	}
}
