package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bistrokit/bistro/pkg/models"
)

// newTestClient serves handler over httptest and returns a client pointed
// at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title": title, "status": status, "detail": detail,
	})
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/auth/login" {
			t.Errorf("got %s %s, want POST /api/v1/auth/login", r.Method, r.URL.Path)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Username != "worker" || req.Password != "pw" {
			t.Errorf("got %s/%s, want worker/pw", req.Username, req.Password)
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    900,
		})
	})

	resp, err := client.Login("worker", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "access" || resp.RefreshToken != "refresh" {
		t.Errorf("tokens = %s/%s, want access/refresh", resp.AccessToken, resp.RefreshToken)
	}
	if resp.ExpiresInDuration().Minutes() != 15 {
		t.Errorf("ExpiresInDuration = %v, want 15m", resp.ExpiresInDuration())
	}
}

func TestLogin_ProblemResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
	})

	_, err := client.Login("worker", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if !apiErr.IsAuthError() {
		t.Errorf("IsAuthError() = false for status %d", apiErr.Status)
	}
	if apiErr.Error() != "Unauthorized: invalid username or password" {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestClient_NonProblemErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	_, err := client.ListTables()
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", apiErr.Status)
	}
	if apiErr.Detail != "upstream exploded" {
		t.Errorf("Detail = %q", apiErr.Detail)
	}
}

func TestClient_BearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]*models.Table{})
	})

	if _, err := client.WithToken("tok-123").ListTables(); err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want 'Bearer tok-123'", gotAuth)
	}

	// The base client stays unauthenticated.
	if _, err := client.ListTables(); err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestTables(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/tables":
			_ = json.NewEncoder(w).Encode([]*models.Table{
				{ID: 1, Capacity: 4, Status: models.TableAvailable},
				{ID: 2, Capacity: 2, Status: models.TableOccupied},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/tables":
			var req TableRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(&models.Table{ID: req.TableID, Capacity: req.Capacity, Status: models.TableAvailable})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/tables/2":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/tables/2":
			writeProblem(w, http.StatusConflict, "Conflict", "table is occupied")
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	tables, err := client.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 2 || tables[1].Status != models.TableOccupied {
		t.Errorf("tables = %+v", tables)
	}

	added, err := client.AddTable(7, 6)
	if err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	if added.ID != 7 || added.Capacity != 6 {
		t.Errorf("added = %+v, want table 7 cap 6", added)
	}

	if err := client.ResizeTable(2, 4); err != nil {
		t.Fatalf("ResizeTable: %v", err)
	}

	err = client.RemoveTable(2)
	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.IsConflict() {
		t.Errorf("RemoveTable error = %v, want conflict", err)
	}
}

func TestOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/orders/42":
			_ = json.NewEncoder(w).Encode(&models.Order{ID: 42, Guests: 2, Status: models.StatusSeated})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/orders/99":
			writeProblem(w, http.StatusNotFound, "Not Found", "order not found")
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/orders/42/status":
			var req struct {
				Status string `json:"status"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Status != "BILLED" {
				t.Errorf("status = %q, want BILLED", req.Status)
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	order, err := client.GetOrder(42)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.ID != 42 || order.Status != models.StatusSeated {
		t.Errorf("order = %+v", order)
	}

	_, err = client.GetOrder(99)
	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.IsNotFound() {
		t.Errorf("GetOrder(99) error = %v, want not found", err)
	}

	if err := client.UpdateOrderStatus(42, models.StatusBilled); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
}

func TestReports(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/reports/performance" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("month") != "7" || r.URL.Query().Get("year") != "2026" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{
			"completed": 12, "avg_stay_minutes": 95,
		})
	})

	report, err := client.PerformanceReport(7, 2026)
	if err != nil {
		t.Fatalf("PerformanceReport: %v", err)
	}
	if report["completed"] != 12 {
		t.Errorf("completed = %v, want 12", report["completed"])
	}
}

func TestAuditLog_LimitQuery(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("[]"))
	})

	if _, err := client.AuditLog(25); err != nil {
		t.Fatalf("AuditLog: %v", err)
	}
	if gotQuery != "limit=25" {
		t.Errorf("query = %q, want limit=25", gotQuery)
	}

	if _, err := client.AuditLog(0); err != nil {
		t.Fatalf("AuditLog: %v", err)
	}
	if gotQuery != "" {
		t.Errorf("query = %q, want empty", gotQuery)
	}
}
