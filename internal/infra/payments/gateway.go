package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gearshare/internal/app/policies"
	"gearshare/internal/domain/shared/money"
)

// GatewayClient talks to the external payment gateway over HTTP. Captures and
// refunds are synchronous; a non-2xx decline maps to ErrPaymentDeclined so the
// calling command can roll back.
type GatewayClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Logger  *slog.Logger
}

func NewGatewayClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *GatewayClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

type captureRequest struct {
	CustomerID string `json:"customer_id"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

type captureResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type refundRequest struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func (c *GatewayClient) AuthorizeAndCapture(ctx context.Context, renterID string, bookingID string, amount money.Money) (string, error) {
	body := captureRequest{
		CustomerID: renterID,
		OrderID:    bookingID,
		Amount:     amount.Amount,
		Currency:   amount.Currency,
	}
	var resp captureResponse
	if err := c.post(ctx, "/v1/captures", body, &resp); err != nil {
		return "", err
	}
	if resp.Reference == "" {
		return "", policies.ErrPaymentDeclined
	}
	if c.Logger != nil {
		c.Logger.Info("payment captured", "booking_id", bookingID, "reference", resp.Reference)
	}
	return resp.Reference, nil
}

func (c *GatewayClient) Refund(ctx context.Context, reference string, amount money.Money) error {
	body := refundRequest{Reference: reference, Amount: amount.Amount, Currency: amount.Currency}
	if err := c.post(ctx, "/v1/refunds", body, nil); err != nil {
		return err
	}
	if c.Logger != nil {
		c.Logger.Info("payment refunded", "reference", reference)
	}
	return nil
}

func (c *GatewayClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("payments: gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity {
		return policies.ErrPaymentDeclined
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("payments: gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ policies.PaymentsPort = (*GatewayClient)(nil)
