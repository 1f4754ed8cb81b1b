package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/evm-risk-engine/internal/engine"
	"github.com/rawblock/evm-risk-engine/internal/paygate"
	"github.com/rawblock/evm-risk-engine/internal/reputation"
	"github.com/rawblock/evm-risk-engine/internal/rpcclient"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func newTestRouter(rpcURL string) *gin.Engine {
	eng := engine.New(rpcclient.New(), reputation.New())
	gate := paygate.New("http://unused", paygate.Requirements{}, true)
	deps := Deps{
		Engine:      eng,
		Gate:        gate,
		RPCURL:      rpcURL,
		ExplorerKey: "",
		Price:       "$0.10",
		Network:     "eip155:8453",
		PayTo:       "0x0000000000000000000000000000000000dEaD",
	}
	return SetupRouter(deps)
}

func TestHandleHealth(t *testing.T) {
	r := newTestRouter("http://unused")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandleAnalyzeInvalidAddress(t *testing.T) {
	r := newTestRouter("http://unused")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/not-an-address", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	rpcServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x6000ff"}`))
	}))
	defer rpcServer.Close()

	r := newTestRouter(rpcServer.URL)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/0x1234567890123456789012345678901234567890", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if _, ok := body["score"]; !ok {
		t.Errorf("expected a score field in response, got %v", body)
	}
}

func TestHandleAgentCard(t *testing.T) {
	r := newTestRouter("http://unused")
	req := httptest.NewRequest(http.MethodGet, "/.well-known/agent-card.json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "evm-risk-engine") {
		t.Errorf("expected agent card to name the service, got %s", w.Body.String())
	}
}

func TestHandleLanding(t *testing.T) {
	r := newTestRouter("http://unused")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
