package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveWithTimeout(d time.Duration, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(RequestTimeout(d))
	r.GET("/recipes", handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	return w
}

func TestRequestTimeout_Disabled(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		var hasDeadline bool
		w := serveWithTimeout(d, func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.String(http.StatusOK, "ok")
		})

		if w.Code != http.StatusOK {
			t.Errorf("%v: expected status 200, got %d", d, w.Code)
		}
		if hasDeadline {
			t.Errorf("%v: expected no deadline on the request context", d)
		}
	}
}

func TestRequestTimeout_DeadlineReachesHandler(t *testing.T) {
	var deadline time.Time
	var ok bool
	start := time.Now()
	w := serveWithTimeout(5*time.Second, func(c *gin.Context) {
		deadline, ok = c.Request.Context().Deadline()
		c.String(http.StatusOK, "ok")
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !ok {
		t.Fatal("expected context to have deadline")
	}
	if deadline.Sub(start) > 5*time.Second+100*time.Millisecond {
		t.Errorf("deadline too far in the future: %v", deadline.Sub(start))
	}
}

func TestRequestTimeout_SlowStoreCall(t *testing.T) {
	w := serveWithTimeout(50*time.Millisecond, func(c *gin.Context) {
		// A store call honoring the request context gives up at the deadline.
		select {
		case <-time.After(200 * time.Millisecond):
			c.String(http.StatusOK, "ok")
		case <-c.Request.Context().Done():
			return
		}
	})

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504 Gateway Timeout, got %d", w.Code)
	}
}

func TestRequestTimeout_ErrorAlreadyWritten(t *testing.T) {
	w := serveWithTimeout(50*time.Millisecond, func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store unavailable"})
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected the handler's 503 to be kept, got %d", w.Code)
	}
}

func TestRequestTimeout_HandlerWritesBeforeTimeout(t *testing.T) {
	w := serveWithTimeout(100*time.Millisecond, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
		time.Sleep(150 * time.Millisecond)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 (already written), got %d", w.Code)
	}
}
