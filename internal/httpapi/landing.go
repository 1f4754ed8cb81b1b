package httpapi

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>EVM Risk Engine</title>
</head>
<body>
<h1>EVM Risk Engine</h1>
<p>Static bytecode risk analysis for EVM smart contracts, priced per call.</p>
<ul>
<li>GET /api/v1/analyze/:address — {{.Price}} on {{.Network}}</li>
<li>GET /api/v1/health</li>
<li>GET /api/v1/stats</li>
<li>GET /.well-known/agent-card.json</li>
<li>GET /openapi.json</li>
</ul>
</body>
</html>
`))

type landingData struct {
	Price   string
	Network string
}

// handleLanding renders the human-facing pricing page at "/".
func handleLanding(price, network string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/html; charset=utf-8")
		_ = landingTemplate.Execute(c.Writer, landingData{Price: price, Network: network})
	}
}
