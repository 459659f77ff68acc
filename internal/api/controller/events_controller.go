package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/chefs_best_friend/internal/cache"
	"github.com/bassista/chefs_best_friend/internal/logger"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

const (
	defaultKeepAlive = 15 * time.Second
	eventBuffer      = 16
)

// EventPayload is the data of every server-sent event.
type EventPayload struct {
	Revision    uint64          `json:"revision"`
	Recipes     []recipe.Recipe `json:"recipes"`
	Error       string          `json:"error,omitempty"`
	LastRefresh time.Time       `json:"lastRefresh"`
}

// EventsController streams cache changes as server-sent events.
type EventsController struct {
	source    cache.AppStore
	keepAlive time.Duration
}

// NewEventsController creates an EventsController. A non-positive keepAlive
// falls back to 15s.
func NewEventsController(source cache.AppStore, keepAlive time.Duration) *EventsController {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &EventsController{source: source, keepAlive: keepAlive}
}

// Stream sends the current list, then one event per cache change until the
// client goes away. Slow clients lose the oldest pending events.
func (ec *EventsController) Stream(c *gin.Context) {
	log := logger.WithComponent("events-controller")

	ch := make(chan cache.Event, eventBuffer)
	unsubscribe := ec.source.Subscribe(func(ev cache.Event) {
		for {
			select {
			case ch <- ev:
				return
			default:
			}
			select {
			case <-ch:
				log.Warn("slow event client, dropping oldest event")
			default:
			}
		}
	})
	defer unsubscribe()

	// Streams outlive the server write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		log.Debugf("cannot clear write deadline: %v", err)
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	status := ec.source.Status()
	c.SSEvent("recipes", EventPayload{
		Revision:    status.Revision,
		Recipes:     ec.source.Snapshot(),
		LastRefresh: status.LastRefresh,
	})
	c.Writer.Flush()
	log.Debug("event client connected")

	ticker := time.NewTicker(ec.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("event client disconnected")
			return
		case ev := <-ch:
			name, payload := toPayload(ev)
			c.SSEvent(name, payload)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			c.Writer.Flush()
		}
	}
}

func toPayload(ev cache.Event) (string, EventPayload) {
	p := EventPayload{
		Revision:    ev.Revision,
		Recipes:     ev.Recipes,
		LastRefresh: ev.LastRefresh,
	}
	if p.Recipes == nil {
		p.Recipes = []recipe.Recipe{}
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
		return "error", p
	}
	return "recipes", p
}
