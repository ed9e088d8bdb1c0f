package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/internal/config"
	domain "github.com/flexipay/wallet-service/internal/domain/gateway"
	apperrors "github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/pkg/log"
)

// HTTPClient talks to the instant-payment gateway's REST API. Responses are
// untrusted; anything that cannot be parsed or confirmed reads as "unknown",
// which the core treats as not yet approved.
type HTTPClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zerolog.Logger
}

func NewHTTPClient(cfg config.Gateway, timeout time.Duration) *HTTPClient {
	l := log.GetLogger()
	return &HTTPClient{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      &l,
	}
}

func (c *HTTPClient) GetStatus(ctx context.Context, externalRef string) (domain.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+externalRef, nil)
	if err != nil {
		return domain.StatusUnknown, apperrors.NewGatewayError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.StatusUnknown, apperrors.NewGatewayError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.StatusUnknown, apperrors.NewGatewayError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.StatusUnknown, apperrors.NewGatewayError(fmt.Errorf("status query returned %d", resp.StatusCode))
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.StatusUnknown, apperrors.NewGatewayError(fmt.Errorf("unmarshal response: %w", err))
	}

	switch result.Status {
	case "approved":
		return domain.StatusApproved, nil
	case "pending", "in_process", "authorized":
		return domain.StatusPending, nil
	case "rejected", "cancelled", "refunded", "charged_back":
		return domain.StatusRejected, nil
	default:
		return domain.StatusUnknown, nil
	}
}

func (c *HTTPClient) CreatePayment(ctx context.Context, amount decimal.Decimal, payerID int64, description string) (*domain.Payment, error) {
	payload := map[string]interface{}{
		"transaction_amount": amount.Round(2),
		"description":        description,
		"payment_method_id":  "pix",
		"external_reference": fmt.Sprintf("%d", payerID),
	}

	body, err := c.post(ctx, "/v1/payments", payload, uuid.New().String())
	if err != nil {
		return nil, err
	}

	var result struct {
		ID                   json.Number `json:"id"`
		PointOfInteraction   struct {
			TransactionData struct {
				QRCode string `json:"qr_code"`
			} `json:"transaction_data"`
		} `json:"point_of_interaction"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperrors.NewGatewayError(fmt.Errorf("unmarshal response: %w", err))
	}
	if result.ID.String() == "" {
		return nil, apperrors.NewGatewayError(fmt.Errorf("payment id missing in response"))
	}

	return &domain.Payment{
		ID:        result.ID.String(),
		CopyPaste: result.PointOfInteraction.TransactionData.QRCode,
	}, nil
}

func (c *HTTPClient) CreatePayout(ctx context.Context, amount decimal.Decimal, pixKey, description string) (string, error) {
	payload := map[string]interface{}{
		"amount":      amount.Round(2),
		"pix_key":     pixKey,
		"description": description,
	}

	body, err := c.post(ctx, "/v1/transfers", payload, uuid.New().String())
	if err != nil {
		return "", err
	}

	var result struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperrors.NewGatewayError(fmt.Errorf("unmarshal response: %w", err))
	}
	if result.ID.String() == "" {
		return "", apperrors.NewGatewayError(fmt.Errorf("payout id missing in response"))
	}

	return result.ID.String(), nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload map[string]interface{}, idempotencyKey string) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewGatewayError(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payloadJSON))
	if err != nil {
		return nil, apperrors.NewGatewayError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("X-Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewGatewayError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewGatewayError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Gateway request rejected")
		return nil, apperrors.NewGatewayError(fmt.Errorf("%s returned %d", path, resp.StatusCode))
	}

	return body, nil
}
