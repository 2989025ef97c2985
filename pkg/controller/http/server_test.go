package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	controller "github.com/ledgerline/refundgate/pkg/controller/http"
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/repository/memory"
	"github.com/ledgerline/refundgate/pkg/service/dispatcher"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type testEnv struct {
	repo   interfaces.Repository
	hub    *hub.Hub
	server *controller.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := memory.New()
	notifications := hub.New()
	jobs := dispatcher.New(repo.Job())
	usecases := usecase.New(repo, notifications, jobs)

	return &testEnv{
		repo:   repo,
		hub:    notifications,
		server: controller.New(usecases, notifications),
	}
}

func (e *testEnv) seedOrder(t *testing.T, orderID, userID string, amount float64) {
	t.Helper()
	gt.NoError(t, e.repo.Order().Put(context.Background(), &model.Order{
		ID:          orderID,
		UserID:      userID,
		TotalAmount: amount,
		Status:      types.OrderStatusDelivered,
		Phone:       "13812341234",
		PayMethod:   "credit_card",
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	})).Required()
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	gt.NoError(t, err).Required()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func submitBody(threadID, userID, orderID string, amount float64) map[string]any {
	return map[string]any{
		"thread_id": threadID,
		"user_id":   userID,
		"order_id":  orderID,
		"amount":    amount,
		"reason":    "item damaged",
	}
}

func TestSubmitRefundEndpoint(t *testing.T) {
	t.Run("low amount is auto-approved", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedOrder(t, "ORD-1001", "U001", 100)

		rec := postJSON(t, env.server, "/api/refunds", submitBody("th-1", "U001", "ORD-1001", 100))
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var resp map[string]any
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp["status"]).Equal("AUTO_APPROVED")
		gt.Value(t, resp["thread_status"]).Equal("APPROVED")
		gt.Value(t, resp["risk_tier"]).Equal("LOW")
	})

	t.Run("invalid amount is a 400", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedOrder(t, "ORD-1002", "U001", 100)

		rec := postJSON(t, env.server, "/api/refunds", submitBody("th-1", "U001", "ORD-1002", -10))
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown order is a 404", func(t *testing.T) {
		env := newTestEnv(t)

		rec := postJSON(t, env.server, "/api/refunds", submitBody("th-1", "U001", "ORD-missing", 100))
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestThreadStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "ORD-2001", "U002", 900)

	rec := postJSON(t, env.server, "/api/refunds", submitBody("th-2", "U002", "ORD-2001", 900))
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	rec = getPath(t, env.server, "/api/threads/th-2/status")
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp map[string]string
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp["status"]).Equal("WAITING_ADMIN")

	rec = getPath(t, env.server, "/api/threads/th-unknown/status")
	gt.Number(t, rec.Code).Equal(http.StatusNotFound)
}

func TestAdminTasksEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "ORD-3001", "U003", 900)
	env.seedOrder(t, "ORD-3002", "U003", 2500)

	gt.Number(t, postJSON(t, env.server, "/api/refunds",
		submitBody("th-3a", "U003", "ORD-3001", 900)).Code).Equal(http.StatusCreated)
	gt.Number(t, postJSON(t, env.server, "/api/refunds",
		submitBody("th-3b", "U003", "ORD-3002", 2500)).Code).Equal(http.StatusCreated)

	t.Run("lists all pending tasks", func(t *testing.T) {
		rec := getPath(t, env.server, "/api/admin/tasks")
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Tasks []model.CaseSummary `json:"tasks"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Array(t, resp.Tasks).Length(2)
	})

	t.Run("filters by risk tier", func(t *testing.T) {
		rec := getPath(t, env.server, "/api/admin/tasks?risk=HIGH")
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Tasks []model.CaseSummary `json:"tasks"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Array(t, resp.Tasks).Length(1)
		gt.Value(t, resp.Tasks[0].RiskTier).Equal(types.RiskTierHigh)
	})

	t.Run("rejects an unknown risk filter", func(t *testing.T) {
		rec := getPath(t, env.server, "/api/admin/tasks?risk=EXTREME")
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestDecideEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "ORD-4001", "U004", 900)

	rec := postJSON(t, env.server, "/api/refunds", submitBody("th-4", "U004", "ORD-4001", 900))
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	var created map[string]any
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created)).Required()
	caseID := created["case_id"].(string)

	decidePath := fmt.Sprintf("/api/admin/decide/%s", caseID)

	t.Run("records the verdict", func(t *testing.T) {
		rec := postJSON(t, env.server, decidePath, map[string]string{
			"reviewer_id": "admin-1",
			"verdict":     "APPROVE",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp map[string]any
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp["verdict"]).Equal("APPROVE")
		gt.Value(t, resp["status"]).Equal("APPROVED")
	})

	t.Run("duplicate decision is not a conflict", func(t *testing.T) {
		rec := postJSON(t, env.server, decidePath, map[string]string{
			"reviewer_id": "admin-2",
			"verdict":     "REJECT",
			"comment":     "late to the party",
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp map[string]any
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp["verdict"]).Equal("APPROVE")
		gt.Value(t, resp["reviewer_id"]).Equal("admin-1")
	})

	t.Run("rejects an invalid verdict", func(t *testing.T) {
		rec := postJSON(t, env.server, decidePath, map[string]string{
			"reviewer_id": "admin-1",
			"verdict":     "MAYBE",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestChatEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "ORD-5001", "U005", 120)

	rec := postJSON(t, env.server, "/api/chat/th-5", map[string]string{
		"user_id": "U005",
		"text":    "please refund ORD-5001",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var reply usecase.ChatReply
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply)).Required()
	gt.Value(t, reply.Intent).Equal(types.IntentRefund)
	gt.Value(t, reply.Status).Equal(types.ThreadStatusApproved)
	gt.Value(t, reply.CaseID).NotEqual("")

	t.Run("missing fields are a 400", func(t *testing.T) {
		rec := postJSON(t, env.server, "/api/chat/th-5", map[string]string{"user_id": "U005"})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestCustomerWebSocket(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "ORD-6001", "U006", 100)

	srv := httptest.NewServer(env.server)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?user_id=U006&thread_id=th-6"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	gt.NoError(t, err).Required()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer ws.Close()

	// Wait for the subscription to land before triggering the event
	deadline := time.Now().Add(time.Second)
	for env.hub.Subscribers(hub.ThreadSubject("U006", "th-6")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket subscription not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := postJSON(t, env.server, "/api/refunds", submitBody("th-6", "U006", "ORD-6001", 100))
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	gt.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second))).Required()
	var event model.Event
	gt.NoError(t, ws.ReadJSON(&event)).Required()
	gt.Value(t, event.Type).Equal(model.EventTypeStatusChange)
	gt.Value(t, event.ThreadID).Equal("th-6")
	gt.Value(t, event.Status).Equal(types.ThreadStatusApproved)

	t.Run("missing query params are a 400", func(t *testing.T) {
		badURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
		_, resp, err := websocket.DefaultDialer.Dial(badURL, nil)
		gt.Error(t, err)
		if resp != nil {
			gt.Number(t, resp.StatusCode).Equal(http.StatusBadRequest)
			resp.Body.Close()
		}
	})
}
