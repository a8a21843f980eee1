package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func TestStripeCreateCheckoutSession(t *testing.T) {
	var (
		gotAuth        string
		gotIdempotency string
		gotForm        map[string]string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())

		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("Idempotency-Key")
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_123","url":"https://checkout.example/cs_test_123","status":"open"}`))
	}))
	defer srv.Close()

	provider := NewStripeClient(&config.Stripe{BaseApiURL: srv.URL, SecretKey: "sk_test_abc"})

	session, err := provider.CreateCheckoutSession(context.Background(), &CheckoutSessionParams{
		LineItems: []LineItem{
			{Name: "Widget", UnitAmount: 1000, Quantity: 2},
			{Name: "Platform Fee", UnitAmount: 100, Quantity: 1},
		},
		Currency:          "usd",
		SuccessURL:        "http://localhost/orders/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         "http://localhost/checkout?canceled=true",
		ClientReferenceID: "order-1",
		Metadata:          map[string]string{"orderId": "order-1", "userId": "buyer-1"},
		ExpiresAt:         time.Unix(1_700_003_600, 0),
		IdempotencyKey:    "checkout-order-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://checkout.example/cs_test_123", session.URL)
	assert.Equal(t, "Bearer sk_test_abc", gotAuth)
	assert.Equal(t, "checkout-order-1", gotIdempotency)

	assert.Equal(t, "payment", gotForm["mode"])
	assert.Equal(t, "usd", gotForm["line_items[0][price_data][currency]"])
	assert.Equal(t, "Widget", gotForm["line_items[0][price_data][product_data][name]"])
	assert.Equal(t, "1000", gotForm["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "2", gotForm["line_items[0][quantity]"])
	assert.Equal(t, "Platform Fee", gotForm["line_items[1][price_data][product_data][name]"])
	assert.Equal(t, "1", gotForm["line_items[1][quantity]"])
	assert.Equal(t, "order-1", gotForm["metadata[orderId]"])
	assert.Equal(t, "buyer-1", gotForm["metadata[userId]"])
	assert.Equal(t, "1700003600", gotForm["expires_at"])
	assert.Equal(t, "http://localhost/orders/success?session_id={CHECKOUT_SESSION_ID}", gotForm["success_url"])
}

func TestStripeErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid currency"}}`))
	}))
	defer srv.Close()

	provider := NewStripeClient(&config.Stripe{BaseApiURL: srv.URL, SecretKey: "sk_test_abc"})

	_, err := provider.CreateCheckoutSession(context.Background(), &CheckoutSessionParams{Currency: "xyz"})
	require.Error(t, err)

	var stripeErr *stripe.Error
	require.ErrorAs(t, err, &stripeErr)
	assert.Equal(t, "Invalid currency", stripeErr.Msg)
	assert.Equal(t, http.StatusBadRequest, stripeErr.HTTPStatusCode)
}

func TestStripeGetCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_test_9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"cs_test_9","status":"complete","payment_status":"paid","payment_intent":"pi_9","metadata":{"orderId":"o-9"}}`))
	}))
	defer srv.Close()

	provider := NewStripeClient(&config.Stripe{BaseApiURL: srv.URL, SecretKey: "sk"})

	session, err := provider.GetCheckoutSession(context.Background(), "cs_test_9")
	require.NoError(t, err)
	assert.True(t, session.IsPaid())
	assert.Equal(t, "pi_9", session.PaymentIntent)
	assert.Equal(t, "o-9", session.Metadata[model.MetadataOrderID])
}

func TestStripeConstructEvent(t *testing.T) {
	provider := NewStripeClient(&config.Stripe{WebhookSecret: testSecret, WebhookTolerance: 5 * time.Minute})
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_intent":"pi_1","metadata":{"orderId":"o-1"}}}}`)

	event, err := provider.ConstructEvent(payload, SignatureHeader(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, model.EventCheckoutSessionCompleted, event.Type)

	session, err := event.CheckoutSession()
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "o-1", session.Metadata[model.MetadataOrderID])

	_, err = provider.ConstructEvent(payload, SignatureHeader(payload, "wrong", time.Now()))
	assert.ErrorIs(t, err, webhook.ErrNoValidSignature)
}
