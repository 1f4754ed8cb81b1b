package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/evm-risk-engine/internal/engine"
	"github.com/rawblock/evm-risk-engine/internal/paygate"
	"github.com/rawblock/evm-risk-engine/internal/statslog"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Deps bundles every collaborator the router needs. Stats, Gate, and Hub
// may be nil — each handler degrades the same way the teacher's handlers
// degrade when dbStore or btcClient are nil. Engine must be non-nil.
type Deps struct {
	Engine        *engine.Engine
	Stats         *statslog.Store
	Gate          *paygate.Gate
	Hub           *Hub
	RPCURL        string
	ExplorerKey   string
	AuthToken     string
	Price         string
	Network       string
	PayTo         string
}

// SetupRouter builds the full route table: a public group (health, discovery
// documents, the live stream, stats), and a paywalled analyze endpoint
// gated by payment, auth, and a per-IP rate limit, in that order.
func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Payment, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := &handler{deps: d}

	r.GET("/", handleLanding(d.Price, d.Network))

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/stats", h.handleStats)
		if d.Hub != nil {
			pub.GET("/stream", d.Hub.Subscribe)
		}
	}

	r.GET("/.well-known/agent-card.json", h.handleAgentCard)
	r.GET("/openapi.json", h.handleOpenAPI)

	paid := r.Group("/api/v1")
	if d.Gate != nil {
		paid.Use(d.Gate.Middleware())
	}
	paid.Use(AuthMiddleware(d.AuthToken))
	paid.Use(NewRateLimiter(30, 5).Middleware())
	{
		paid.GET("/analyze/:address", h.handleAnalyze)
	}

	return r
}

type handler struct {
	deps Deps
}

func (h *handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "operational",
		"engine":        "EVM Risk Engine v1.0",
		"statsConnected": h.deps.Stats != nil,
	})
}

func (h *handler) handleAgentCard(c *gin.Context) {
	baseURL := "https://" + c.Request.Host
	c.JSON(http.StatusOK, BuildAgentCard(baseURL, h.deps.Network, h.deps.PayTo, h.deps.Price))
}

func (h *handler) handleOpenAPI(c *gin.Context) {
	baseURL := "https://" + c.Request.Host
	c.JSON(http.StatusOK, OpenAPISpec(baseURL))
}

func (h *handler) handleStats(c *gin.Context) {
	summary, err := h.deps.Stats.GetSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// handleAnalyze is the paywalled core of the service: GET
// /api/v1/analyze/:address returns the risk score, level, and findings for
// the given contract address.
func (h *handler) handleAnalyze(c *gin.Context) {
	address := c.Param("address")
	if !addressPattern.MatchString(address) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid address format, expected 0x-prefixed 20-byte hex"})
		return
	}

	result, err := h.deps.Engine.Analyze(c.Request.Context(), address, h.deps.RPCURL, h.deps.ExplorerKey)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to analyze contract", "details": err.Error()})
		return
	}

	h.deps.Stats.Record(c.Request.Context(), address, h.deps.RPCURL, result.Score, string(result.Level), result.Cached)

	if h.deps.Hub != nil {
		if payload, err := json.Marshal(gin.H{"type": "analysis_complete", "result": result}); err == nil {
			h.deps.Hub.Broadcast(payload)
		} else {
			log.Printf("httpapi: failed to marshal stream payload: %v", err)
		}
	}

	c.JSON(http.StatusOK, result)
}
