package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	activitydomain "github.com/billfold/billfold/internal/activity/domain"
	"github.com/billfold/billfold/internal/activity/hub"
	"github.com/billfold/billfold/internal/userctx"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListActivity(c *gin.Context) {
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		offset = parsed
	}

	resp, err := s.activitySvc.List(c.Request.Context(), activitydomain.ListRequest{
		Offset:   offset,
		PageSize: activitydomain.DefaultPageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, resp)
}

func (s *Server) MarkActivityRead(c *gin.Context) {
	unread, err := s.activitySvc.MarkAllRead(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordMarkRead()
	}

	statusOK(c, gin.H{"unread_count": unread})
}

func (s *Server) DeleteActivity(c *gin.Context) {
	if err := s.activitySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, gin.H{"deleted": true})
}

func (s *Server) UnreadCount(c *gin.Context) {
	count, err := s.activitySvc.UnreadCount(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	statusOK(c, gin.H{"unread_count": count})
}

// StreamActivity pushes feed changes over SSE. A short backlog is
// replayed on connect so a client that reconnects does not miss the
// changes published while it was away.
func (s *Server) StreamActivity(c *gin.Context) {
	if s.activityHub == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	userID, ok := userctx.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	subscription, backlog, err := s.activityHub.Subscribe(userID.String())
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}

	for _, change := range backlog {
		if err := writeActivityChange(writer, change); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change := <-subscription.Events():
			if err := writeActivityChange(writer, change); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeActivityChange(w io.Writer, change hub.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
