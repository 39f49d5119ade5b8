package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitual/internal/config"
	"habitual/internal/core"
)

func testClient() *Client {
	return NewClient(&config.Config{
		StripeSecretKey:      "sk_test_123",
		StripeWebhookSecret:  "whsec_test",
		StripePriceIDPro:     "price_pro",
		StripePriceIDPremium: "price_premium",
		AppURL:               "http://localhost:8081",
	})
}

func TestParsePlan(t *testing.T) {
	for _, valid := range []string{"pro", "premium"} {
		plan, err := ParsePlan(valid)
		require.NoError(t, err)
		assert.Equal(t, core.Tier(valid), plan)
	}
	for _, invalid := range []string{"", "free", "enterprise"} {
		_, err := ParsePlan(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestTierForPrice(t *testing.T) {
	c := testClient()
	assert.Equal(t, core.TierPro, c.TierForPrice("price_pro"))
	assert.Equal(t, core.TierPremium, c.TierForPrice("price_premium"))
	assert.Equal(t, core.TierFree, c.TierForPrice("price_unknown"))
	assert.Equal(t, core.TierFree, c.TierForPrice(""))
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": "https://checkout.stripe.com/cs_1"})
	}))
	defer server.Close()

	c := testClient()
	c.baseURL = server.URL

	url, err := c.CreateCheckoutSession(context.Background(), "cus_1", "user-1", core.TierPro)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", url)

	assert.Equal(t, "subscription", gotForm["mode"][0])
	assert.Equal(t, "price_pro", gotForm["line_items[0][price]"][0])
	assert.Equal(t, "user-1", gotForm["metadata[userId]"][0])
	assert.Contains(t, gotForm["success_url"][0], "success=true")
}

func TestCreateCheckoutSessionUnknownPlan(t *testing.T) {
	c := testClient()
	_, err := c.CreateCheckoutSession(context.Background(), "cus_1", "user-1", core.TierFree)
	assert.Error(t, err)
}

func TestCreatePortalSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"url": "https://billing.stripe.com/p_1"})
	}))
	defer server.Close()

	c := testClient()
	c.baseURL = server.URL

	url, err := c.CreatePortalSession(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p_1", url)
}

func TestStripeErrorSurface(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "card declined"},
		})
	}))
	defer server.Close()

	c := testClient()
	c.baseURL = server.URL

	_, err := c.CreateCustomer(context.Background(), "a@example.com", "A", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func signPayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return "t=" + strconv.FormatInt(ts.Unix(), 10) + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func subscriptionPayload(status, priceID string) []byte {
	return []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1",
			"customer": "cus_1",
			"status": "` + status + `",
			"current_period_end": 1780000000,
			"items": {"data": [{"price": {"id": "` + priceID + `"}}]}
		}}
	}`)
}

func TestConstructEvent(t *testing.T) {
	payload := subscriptionPayload("active", "price_pro")
	now := time.Now()

	t.Run("valid signature", func(t *testing.T) {
		event, err := constructEvent(payload, signPayload(t, payload, "whsec_test", now), "whsec_test", now)
		require.NoError(t, err)
		assert.Equal(t, "customer.subscription.updated", event.Type)

		sub, err := ParseSubscription(event)
		require.NoError(t, err)
		assert.Equal(t, "cus_1", sub.Customer)
		assert.Equal(t, "price_pro", sub.PriceID())
		assert.True(t, sub.Active())
		assert.Equal(t, time.Unix(1780000000, 0).UTC(), sub.PeriodEnd())
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := constructEvent(payload, signPayload(t, payload, "whsec_other", now), "whsec_test", now)
		assert.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := signPayload(t, payload, "whsec_test", now)
		tampered := subscriptionPayload("active", "price_premium")
		_, err := constructEvent(tampered, header, "whsec_test", now)
		assert.Error(t, err)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		old := now.Add(-10 * time.Minute)
		_, err := constructEvent(payload, signPayload(t, payload, "whsec_test", old), "whsec_test", now)
		assert.Error(t, err)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := constructEvent(payload, "v1=zzzz", "whsec_test", now)
		assert.Error(t, err)
	})
}

func TestSubscriptionStates(t *testing.T) {
	cases := []struct {
		status string
		active bool
	}{
		{"active", true},
		{"trialing", true},
		{"past_due", false},
		{"canceled", false},
		{"unpaid", false},
	}
	for _, tc := range cases {
		sub := Subscription{Status: tc.status}
		assert.Equal(t, tc.active, sub.Active(), tc.status)
	}
}
