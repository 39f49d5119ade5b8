package http

import (
	"io"
	"net/http"
	"time"

	"habitual/internal/auth"
	"habitual/internal/billing"
	"habitual/internal/core"
	"habitual/internal/log"
)

const maxWebhookBody = 64 << 10

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type billingURLResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleBillingCheckout(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		writeError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	ctx := r.Context()

	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan, err := billing.ParsePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	customerID := user.StripeCustomerID
	if customerID == "" {
		customerID, err = s.billing.CreateCustomer(ctx, user.Email, user.Name, user.ID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if err := s.repo.SetStripeCustomer(ctx, user.ID, customerID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	url, err := s.billing.CreateCheckoutSession(ctx, customerID, user.ID, plan)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, billingURLResponse{URL: url})
}

func (s *Server) handleBillingPortal(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		writeError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}
	user, _ := auth.UserFromContext(r.Context())

	if user.StripeCustomerID == "" {
		writeError(w, http.StatusNotFound, "no billing account")
		return
	}

	url, err := s.billing.CreatePortalSession(r.Context(), user.StripeCustomerID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, billingURLResponse{URL: url})
}

// handleBillingWebhook reconciles the local tier from Stripe subscription
// events. Unknown event types are acknowledged and ignored.
func (s *Server) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		writeError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}
	ctx := r.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	event, err := s.billing.ConstructEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Webhook signature rejected", log.FieldError, err)
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		err = s.reconcileSubscription(r, event, false)
	case "customer.subscription.deleted":
		err = s.reconcileSubscription(r, event, true)
	default:
		log.FromContext(ctx).DebugContext(ctx, "Ignoring webhook event", "event_type", event.Type)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) reconcileSubscription(r *http.Request, event billing.Event, deleted bool) error {
	ctx := r.Context()

	sub, err := billing.ParseSubscription(event)
	if err != nil {
		return err
	}
	user, err := s.repo.GetUserByStripeCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}

	tier := core.TierFree
	subscriptionID := ""
	endsAt := time.Time{}
	if !deleted && sub.Active() {
		tier = s.billing.TierForPrice(sub.PriceID())
		subscriptionID = sub.ID
		endsAt = sub.PeriodEnd()
	}

	if err := s.repo.UpdateSubscription(ctx, user.ID, tier, sub.Customer, subscriptionID, endsAt); err != nil {
		return err
	}
	log.FromContext(ctx).InfoContext(ctx, "Subscription reconciled",
		log.FieldUserID, user.ID,
		log.FieldTier, string(tier),
		"event_type", event.Type)
	return nil
}
