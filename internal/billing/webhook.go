package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// webhookTolerance bounds the age of a signed webhook payload.
const webhookTolerance = 5 * time.Minute

// Event is a Stripe webhook event envelope.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Subscription is the slice of a Stripe subscription object we act on.
type Subscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// PriceID returns the subscription's first price ID, if any.
func (s Subscription) PriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// Active reports whether the subscription entitles the customer to its tier.
func (s Subscription) Active() bool {
	return s.Status == "active" || s.Status == "trialing"
}

// PeriodEnd converts the epoch period end to a time, zero when unset.
func (s Subscription) PeriodEnd() time.Time {
	if s.CurrentPeriodEnd == 0 {
		return time.Time{}
	}
	return time.Unix(s.CurrentPeriodEnd, 0).UTC()
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
func (c *Client) ConstructEvent(payload []byte, sigHeader string) (Event, error) {
	return constructEvent(payload, sigHeader, c.webhookSecret, time.Now())
}

func constructEvent(payload []byte, sigHeader, secret string, now time.Time) (Event, error) {
	var event Event
	if err := verifySignature(payload, sigHeader, secret, now); err != nil {
		return Event{}, err
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// verifySignature checks the v1 HMAC-SHA256 scheme: the signed payload is
// "<timestamp>.<body>" and any matching v1 entry passes.
func verifySignature(payload []byte, sigHeader, secret string, now time.Time) error {
	var (
		timestamp  int64
		signatures [][]byte
	)
	for _, part := range strings.Split(sigHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid signature timestamp: %w", err)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}

// ParseSubscription decodes the subscription object out of an event.
func ParseSubscription(event Event) (Subscription, error) {
	var sub Subscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return Subscription{}, fmt.Errorf("decode subscription: %w", err)
	}
	if sub.Customer == "" {
		return Subscription{}, fmt.Errorf("subscription event missing customer")
	}
	return sub, nil
}
