package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hashicorp/go-retryablehttp"

	"habitual/internal/config"
	"habitual/internal/core"
)

const defaultBaseURL = "https://api.stripe.com"

// Client wraps the Stripe REST API for subscriptions.
type Client struct {
	http          *retryablehttp.Client
	secretKey     string
	webhookSecret string
	appURL        string
	priceIDs      map[core.Tier]string
	baseURL       string
}

func NewClient(cfg *config.Config) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = time.Second
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.HTTPClient.Timeout = 30 * time.Second
	httpClient.Logger = nil

	return &Client{
		http:          httpClient,
		secretKey:     cfg.StripeSecretKey,
		webhookSecret: cfg.StripeWebhookSecret,
		appURL:        cfg.AppURL,
		priceIDs: map[core.Tier]string{
			core.TierPro:     cfg.StripePriceIDPro,
			core.TierPremium: cfg.StripePriceIDPremium,
		},
		baseURL: defaultBaseURL,
	}
}

// ParsePlan maps a checkout plan name to a paid tier.
func ParsePlan(s string) (core.Tier, error) {
	switch core.Tier(s) {
	case core.TierPro, core.TierPremium:
		return core.Tier(s), nil
	}
	return "", fmt.Errorf("invalid plan: %q", s)
}

// TierForPrice resolves a Stripe price ID back to the tier it sells.
// Unknown prices map to free, matching the reconciliation rule.
func (c *Client) TierForPrice(priceID string) core.Tier {
	for tier, id := range c.priceIDs {
		if id != "" && id == priceID {
			return tier
		}
	}
	return core.TierFree
}

// CreateCustomer creates a Stripe customer linked to the user.
func (c *Client) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	if name != "" {
		form.Set("name", name)
	}
	form.Set("metadata[userId]", userID)

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, "/v1/customers", form, &resp); err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return resp.ID, nil
}

// CreateCheckoutSession starts a subscription checkout and returns its URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, customerID, userID string, plan core.Tier) (string, error) {
	priceID := c.priceIDs[plan]
	if priceID == "" {
		return "", fmt.Errorf("no price configured for plan %q", plan)
	}

	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.appURL+"/settings/billing?success=true")
	form.Set("cancel_url", c.appURL+"/settings/billing?canceled=true")
	form.Set("metadata[userId]", userID)
	form.Set("metadata[plan]", string(plan))

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, "/v1/checkout/sessions", form, &resp); err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return resp.URL, nil
}

// CreatePortalSession opens the billing portal for an existing customer.
func (c *Client) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", c.appURL+"/settings/billing")

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, "/v1/billing_portal/sessions", form, &resp); err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return resp.URL, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("stripe request failed: %w", err))
		return fmt.Errorf("call stripe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		err := fmt.Errorf("stripe returned %d: %s", resp.StatusCode, apiErr.Error.Message)
		sentry.CaptureException(err)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
