package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WebSocket command types.
const (
	CommandProgress = "progress"
	CommandNavigate = "navigate"
	CommandComplete = "complete"
	CommandGrade    = "grade"
)

// Command is a request sent by the front end over /ws. ID is echoed in the
// reply so the client can drop results for a lesson it has navigated away
// from.
type Command struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	CourseID string `json:"courseId"`
	LessonID string `json:"lessonId,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// Reply carries the same payload the matching HTTP endpoint returns, or an
// error message.
type Reply struct {
	ID    string `json:"id,omitempty"`
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	for {
		var cmd Command
		if err := wsjson.Read(ctx, c, &cmd); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("websocket closed", "error", err)
			}
			return
		}

		if err := wsjson.Write(ctx, c, s.dispatch(ctx, cmd)); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, cmd Command) Reply {
	reply := Reply{ID: cmd.ID, Type: cmd.Type}

	var (
		data any
		err  error
	)
	switch cmd.Type {
	case CommandProgress:
		data, err = s.courseProgress(ctx, cmd.CourseID)
	case CommandNavigate:
		data, err = s.navigate(ctx, cmd.CourseID, cmd.LessonID)
	case CommandComplete:
		data, err = s.complete(ctx, cmd.CourseID, cmd.LessonID)
	case CommandGrade:
		data, err = s.grade(ctx, cmd.CourseID, cmd.LessonID, cmd.Answer)
	default:
		err = &apiError{http.StatusBadRequest, "Unknown command type"}
	}

	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			reply.Error = apiErr.Message
		} else {
			slog.Error("websocket command failed", "type", cmd.Type, "error", err)
			reply.Error = "Internal server error"
		}
		return reply
	}
	reply.Data = data
	return reply
}
