package paygate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestMiddlewareSyntheticBypass(t *testing.T) {
	g := New("http://unused", Requirements{}, true)
	r := gin.New()
	r.Use(g.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with synthetic bypass, got %d", w.Code)
	}
}

func TestMiddlewareNoPaymentHeader(t *testing.T) {
	g := New("http://unused", Requirements{Scheme: "exact"}, false)
	r := gin.New()
	r.Use(g.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", w.Code)
	}
}

func TestMiddlewareVerifiedPayment(t *testing.T) {
	facilitator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/verify" {
			_, _ = w.Write([]byte(`{"isValid":true}`))
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer facilitator.Close()

	g := New(facilitator.URL, Requirements{Scheme: "exact"}, false)
	r := gin.New()
	r.Use(g.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Payment", "stub-payload")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with verified payment, got %d", w.Code)
	}
}

func TestMiddlewareRejectedPayment(t *testing.T) {
	facilitator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid":false,"invalidReason":"insufficient funds"}`))
	}))
	defer facilitator.Close()

	g := New(facilitator.URL, Requirements{Scheme: "exact"}, false)
	r := gin.New()
	r.Use(g.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Payment", "stub-payload")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402 for rejected payment, got %d", w.Code)
	}
}
