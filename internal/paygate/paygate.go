// Package paygate gates a route behind an x402-style micropayment: a
// request without an X-Payment header gets a 402 challenge describing the
// accepted payment; a request that includes one is forwarded to a
// facilitator for verification (and, on success, settlement) before the
// handler runs.
package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Requirements describes the payment this service accepts, mirroring
// x402's PaymentRequirements shape.
type Requirements struct {
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
	Asset   string `json:"asset"`
	PayTo   string `json:"payTo"`
	Amount  string `json:"maxAmountRequired"`
	Resource string `json:"resource"`
}

// Gate holds the facilitator endpoint and the payment this service demands.
type Gate struct {
	http           *http.Client
	facilitatorURL string
	requirements   Requirements
	synthetic      bool
}

// New builds a Gate. When synthetic is true, Middleware always calls
// c.Next() without contacting the facilitator — matching the teacher's
// ENABLE_SYNTHETIC escape hatch for local development.
func New(facilitatorURL string, requirements Requirements, synthetic bool) *Gate {
	return &Gate{
		http:           &http.Client{Timeout: 10 * time.Second},
		facilitatorURL: facilitatorURL,
		requirements:   requirements,
		synthetic:      synthetic,
	}
}

// Middleware enforces the payment gate on the routes it's attached to.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.synthetic {
			c.Next()
			return
		}

		payment := c.GetHeader("X-Payment")
		if payment == "" {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"x402Version": 1,
				"error":       "payment required",
				"accepts":     []Requirements{g.requirements},
			})
			c.Abort()
			return
		}

		ok, reason := g.verify(c.Request.Context(), payment)
		if !ok {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"x402Version": 1,
				"error":       reason,
				"accepts":     []Requirements{g.requirements},
			})
			c.Abort()
			return
		}

		// Settlement is fire-and-forget: a failure here doesn't un-authorize
		// a request that the facilitator already verified as payable.
		go g.settle(payment)

		c.Next()
	}
}

func (g *Gate) verify(ctx context.Context, payment string) (bool, string) {
	body, err := json.Marshal(map[string]interface{}{
		"x402Version":         1,
		"paymentPayload":      payment,
		"paymentRequirements": g.requirements,
	})
	if err != nil {
		return false, "internal error encoding verify request"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.facilitatorURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return false, "facilitator unreachable"
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		log.Printf("paygate: verify request failed: %v", err)
		return false, "facilitator unreachable"
	}
	defer resp.Body.Close()

	var result struct {
		IsValid       bool   `json:"isValid"`
		InvalidReason string `json:"invalidReason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, "facilitator returned an invalid response"
	}
	if !result.IsValid {
		return false, result.InvalidReason
	}
	return true, ""
}

func (g *Gate) settle(payment string) {
	body, err := json.Marshal(map[string]interface{}{
		"x402Version":         1,
		"paymentPayload":      payment,
		"paymentRequirements": g.requirements,
	})
	if err != nil {
		log.Printf("paygate: settle encoding failed: %v", err)
		return
	}

	resp, err := g.http.Post(g.facilitatorURL+"/settle", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("paygate: settle request failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("paygate: settle returned status %d", resp.StatusCode)
	}
}
