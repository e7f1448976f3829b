package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"order-service/internal/domain"
)

// HTTPProcessor talks to a Stripe-style payment intents API.
type HTTPProcessor struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewHTTPProcessor(baseURL, secretKey string, timeout time.Duration) *HTTPProcessor {
	return &HTTPProcessor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type intentResponse struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *HTTPProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("metadata[order_id]", strconv.FormatUint(req.OrderID, 10))
	form.Set("metadata[customer_id]", strconv.FormatUint(req.CustomerID, 10))

	var out intentResponse
	if err := c.post(ctx, "/v1/payment_intents", form, &out); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}

func (c *HTTPProcessor) ConfirmIntent(ctx context.Context, intentID string) (*Confirmation, error) {
	var out intentResponse
	path := "/v1/payment_intents/" + url.PathEscape(intentID) + "/confirm"
	if err := c.post(ctx, path, url.Values{}, &out); err != nil {
		return nil, fmt.Errorf("confirm payment intent %s: %w", intentID, err)
	}
	return &Confirmation{Status: mapIntentStatus(out.Status), Method: out.PaymentMethod}, nil
}

func (c *HTTPProcessor) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrIntentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("processor returned status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("processor returned status %d", resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

// mapIntentStatus folds the processor's intent lifecycle onto ours.
func mapIntentStatus(s string) domain.PaymentStatus {
	switch s {
	case "succeeded":
		return domain.PaymentSucceeded
	case "canceled", "requires_payment_method":
		return domain.PaymentFailed
	case "requires_confirmation":
		return domain.PaymentRequiresConfirmation
	default:
		return domain.PaymentPending
	}
}

var _ Processor = (*HTTPProcessor)(nil)
