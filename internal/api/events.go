package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Iron-Ham/maintenance/internal/event"
	"github.com/Iron-Ham/maintenance/internal/task"
)

const eventBuffer = 64

// handleEvents streams bus events as server-sent events until the client
// disconnects or the server shuts down. A "ready" event is sent once the subscription is live.
// Events are dropped for a client that falls more than eventBuffer behind.
func (s *Server) handleEvents(c *gin.Context) {
	bus := s.svc.Tracker().Bus()
	ch := make(chan event.Event, eventBuffer)
	id := bus.SubscribeAll(func(e event.Event) {
		select {
		case ch <- e:
		default:
			s.logger.Warn("event stream lagging, dropping event", "type", e.EventType())
		}
	})
	defer bus.Unsubscribe(id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"at": task.FormatTime(s.svc.Tracker().Now())})
	c.Writer.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()
	done := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case <-s.closing:
			return false
		case e := <-ch:
			c.SSEvent(e.EventType(), eventPayload(e))
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": task.FormatTime(s.svc.Tracker().Now())})
			return true
		}
	})
}

func eventPayload(e event.Event) gin.H {
	p := gin.H{
		"type": e.EventType(),
		"at":   task.FormatTime(e.Timestamp()),
	}
	if te, ok := e.(event.TaskEvent); ok {
		p["task_id"] = te.TaskRef()
	}

	switch ev := e.(type) {
	case event.TaskAddedEvent:
		p["title"] = ev.Title
		p["zone"] = ev.Zone
	case event.TaskUpdatedEvent:
		p["fields"] = ev.Fields
	case event.TaskStartedEvent:
		p["owner"] = ev.Owner
		p["resumed"] = ev.Resumed
	case event.TaskPausedEvent:
		p["owner"] = ev.Owner
		p["accum_sec"] = ev.AccumSec
	case event.TaskCompletedEvent:
		p["owner"] = ev.Owner
		p["minutes"] = ev.Minutes
		if ev.Due != nil {
			p["due"] = task.FormatTime(*ev.Due)
		} else {
			p["due"] = nil
		}
	case event.StoreReloadedEvent:
		p["count"] = ev.Count
		p["skipped"] = ev.Skipped
	}
	return p
}
