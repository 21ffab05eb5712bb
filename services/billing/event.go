package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	stripelib "github.com/stripe/stripe-go/v82"
)

// Kind classifies the webhook events the reconciler understands. Anything
// else parses to KindUnknown and is acknowledged without a state change.
type Kind string

const (
	KindCheckoutCompleted   Kind = "checkout.session.completed"
	KindSubscriptionCreated Kind = "customer.subscription.created"
	KindSubscriptionUpdated Kind = "customer.subscription.updated"
	KindSubscriptionDeleted Kind = "customer.subscription.deleted"
	KindSubscriptionPaused  Kind = "customer.subscription.paused"
	KindSubscriptionResumed Kind = "customer.subscription.resumed"
	KindPaymentSucceeded    Kind = "invoice.payment_succeeded"
	KindPaymentFailed       Kind = "invoice.payment_failed"
	KindCustomerDeleted     Kind = "customer.deleted"
	KindUnknown             Kind = "unknown"
)

// Event is the normalized form of a Stripe webhook event. Only the fields
// relevant to the event's Kind are populated.
type Event struct {
	ID             string
	Kind           Kind
	CustomerID     string
	SubscriptionID string
	Status         string
	Tier           string
	SeatLimit      *int
	PeriodEnd      *time.Time
}

type checkoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

type invoice struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

type customer struct {
	ID string `json:"id"`
}

// periodEnd prefers the subscription-level field and falls back to the first
// item, where newer Stripe API versions report it.
func (s *subscription) periodEnd() *time.Time {
	unix := s.CurrentPeriodEnd
	if unix == 0 {
		for _, item := range s.Items.Data {
			if item.CurrentPeriodEnd != 0 {
				unix = item.CurrentPeriodEnd
				break
			}
		}
	}
	if unix == 0 {
		return nil
	}
	t := time.Unix(unix, 0).UTC()
	return &t
}

func (s *subscription) tier() string {
	if t := strings.TrimSpace(s.Metadata["tier"]); t != "" {
		return t
	}
	for _, item := range s.Items.Data {
		if t := strings.TrimSpace(item.Price.Metadata["tier"]); t != "" {
			return t
		}
	}
	return ""
}

func (s *subscription) seatLimit() *int {
	raw := strings.TrimSpace(s.Metadata["seat_limit"])
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// ParseEvent normalizes a verified Stripe event. Unhandled event types are
// not an error; they come back as KindUnknown.
func ParseEvent(ev *stripelib.Event) (Event, error) {
	out := Event{ID: ev.ID, Kind: Kind(ev.Type)}

	switch out.Kind {
	case KindCheckoutCompleted:
		var session checkoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("decode checkout.session: %w", err)
		}
		out.CustomerID = session.Customer
		out.SubscriptionID = session.Subscription
		out.Tier = strings.TrimSpace(session.Metadata["tier"])

	case KindSubscriptionCreated, KindSubscriptionUpdated, KindSubscriptionDeleted,
		KindSubscriptionPaused, KindSubscriptionResumed:
		var sub subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("decode subscription: %w", err)
		}
		out.CustomerID = sub.Customer
		out.SubscriptionID = sub.ID
		out.Status = sub.Status
		out.Tier = sub.tier()
		out.SeatLimit = sub.seatLimit()
		out.PeriodEnd = sub.periodEnd()

	case KindPaymentSucceeded, KindPaymentFailed:
		var inv invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return Event{}, fmt.Errorf("decode invoice: %w", err)
		}
		out.CustomerID = inv.Customer

	case KindCustomerDeleted:
		var cust customer
		if err := json.Unmarshal(ev.Data.Raw, &cust); err != nil {
			return Event{}, fmt.Errorf("decode customer: %w", err)
		}
		out.CustomerID = cust.ID

	default:
		out.Kind = KindUnknown
	}

	return out, nil
}
