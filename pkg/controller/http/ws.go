package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/utils/async"
	"github.com/ledgerline/refundgate/pkg/utils/errutil"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/ledgerline/refundgate/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is served same-origin behind a proxy; origin checks belong there
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// handleCustomerSocket serves the live channel for one customer thread
func (s *Server) handleCustomerSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	threadID := r.URL.Query().Get("thread_id")
	if userID == "" || threadID == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("user_id and thread_id are required"), http.StatusBadRequest)
		return
	}

	s.serveSocket(w, r, hub.ThreadSubject(userID, threadID))
}

// handleReviewerSocket serves the shared reviewer-pool channel
func (s *Server) handleReviewerSocket(w http.ResponseWriter, r *http.Request) {
	s.serveSocket(w, r, hub.ReviewerSubject())
}

// serveSocket bridges one websocket onto the hub: a writer pump drains the
// subscription channel into the socket, while the reader loop treats every
// inbound frame as a liveness ping. Closing either side tears down both.
func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request, subject hub.Subject) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		logging.From(r.Context()).Warn("websocket upgrade failed",
			"subject", string(subject),
			"error", err.Error())
		return
	}

	conn := s.notifications.Subscribe(subject)
	logging.From(r.Context()).Info("websocket connected",
		"connection_id", conn.ID(),
		"subject", string(subject))

	async.Dispatch(r.Context(), func(ctx context.Context) error {
		return s.writerPump(ctx, ws, conn)
	})

	// Reader loop: clients send periodic pings (any frame counts)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
		s.notifications.Touch(conn)
	}

	s.notifications.Unsubscribe(conn)
	safe.Close(r.Context(), ws)
}

// writerPump forwards hub events to the socket until the subscription channel
// closes (unsubscribe or heartbeat reaping) or a write fails
func (s *Server) writerPump(ctx context.Context, ws *websocket.Conn, conn *hub.Connection) error {
	for event := range conn.Events() {
		if err := ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			break
		}
		if err := ws.WriteJSON(event); err != nil {
			logging.From(ctx).Warn("websocket write failed",
				"connection_id", conn.ID(),
				"error", err.Error())
			break
		}
	}

	s.notifications.Unsubscribe(conn)
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	safe.Close(ctx, ws)
	return nil
}
