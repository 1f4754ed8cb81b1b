package httpapi

// AgentCard describes this service as an autonomous-agent-discoverable
// resource, following the emerging agent-card convention used by x402-style
// pay-per-call services so that agentic clients can find and price a call
// without a human reading documentation first.
type AgentCard struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Version     string          `json:"version"`
	Endpoints   []AgentEndpoint `json:"endpoints"`
}

// AgentEndpoint describes one callable, priced capability.
type AgentEndpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Network     string `json:"network"`
	PayTo       string `json:"payTo"`
}

// BuildAgentCard assembles the discovery document served at
// /.well-known/agent-card.json. The registration CLI takes its Name and
// Description from it.
func BuildAgentCard(baseURL, network, payTo, price string) AgentCard {
	return AgentCard{
		Name:        "evm-risk-engine",
		Description: "Static bytecode risk analysis for EVM smart contracts: selfdestruct, delegatecall, hidden mint/fee backdoors, honeypot patterns, proxy resolution, and deployer reputation, scored 0-100.",
		Version:     "1.0.0",
		Endpoints: []AgentEndpoint{
			{
				Path:        "/api/v1/analyze/:address",
				Method:      "GET",
				Description: "Analyze the deployed bytecode at an address and return a risk score, level, and itemized findings.",
				Price:       price,
				Network:     network,
				PayTo:       payTo,
			},
		},
	}
}

// OpenAPISpec returns a minimal OpenAPI 3.0 document describing the public
// and paywalled routes, served at /openapi.json.
func OpenAPISpec(baseURL string) map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   "EVM Risk Engine",
			"version": "1.0.0",
		},
		"servers": []map[string]string{{"url": baseURL}},
		"paths": map[string]interface{}{
			"/api/v1/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Service health",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "OK"},
					},
				},
			},
			"/api/v1/analyze/{address}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Analyze a contract address",
					"parameters": []map[string]interface{}{
						{"name": "address", "in": "path", "required": true, "schema": map[string]string{"type": "string"}},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Analysis result"},
						"402": map[string]interface{}{"description": "Payment required"},
					},
				},
			},
			"/api/v1/stats": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Aggregate usage statistics",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Summary"},
					},
				},
			},
		},
	}
}
