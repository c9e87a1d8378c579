package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"order-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedOrder() *models.Order {
	return &models.Order{
		ShortID: "ALP-1A2B3C",
		Name:    "Ada",
		Email:   "ada@example.com",
		Phone:   "+15550100",
		Status:  models.StatusConfirmed,
	}
}

func TestDispatcherAttemptsBothChannels(t *testing.T) {
	var emails, texts atomic.Int32

	emailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "Bearer email-key", r.Header.Get("Authorization"))
		emails.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer emailSrv.Close()

	smsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sms", r.URL.Path)
		texts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer smsSrv.Close()

	d := NewDispatcher(
		NewEmailClient(emailSrv.URL, "email-key", "orders@example.com"),
		NewSMSClient(smsSrv.URL, "sms-key", "STOREFRONT"),
	)

	d.OrderConfirmed(context.Background(), confirmedOrder())

	assert.Equal(t, int32(1), emails.Load())
	assert.Equal(t, int32(1), texts.Load())
}

func TestDispatcherChannelFailureIsIsolated(t *testing.T) {
	var texts atomic.Int32

	emailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer emailSrv.Close()

	smsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		texts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer smsSrv.Close()

	d := NewDispatcher(
		NewEmailClient(emailSrv.URL, "email-key", "orders@example.com"),
		NewSMSClient(smsSrv.URL, "sms-key", "STOREFRONT"),
	)

	// OrderConfirmed returns normally even though email failed
	d.OrderConfirmed(context.Background(), confirmedOrder())

	assert.Equal(t, int32(1), texts.Load(), "sms must still be attempted when email fails")
}

func TestDispatcherSkipsMissingContactDetails(t *testing.T) {
	var emails atomic.Int32

	emailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		emails.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer emailSrv.Close()

	d := NewDispatcher(NewEmailClient(emailSrv.URL, "k", "orders@example.com"), nil)

	order := confirmedOrder()
	order.Email = ""
	d.OrderConfirmed(context.Background(), order)

	assert.Zero(t, emails.Load(), "no email attempt without an address")
}

type failingSender struct{}

func (failingSender) Send(context.Context, string, string, string) error {
	return errors.New("provider down")
}

type okSMS struct{ sent atomic.Int32 }

func (s *okSMS) Send(context.Context, string, string) error {
	s.sent.Add(1)
	return nil
}

func TestDispatcherCollectsResultsIndependently(t *testing.T) {
	sms := &okSMS{}
	d := NewDispatcher(failingSender{}, sms)

	d.OrderConfirmed(context.Background(), confirmedOrder())
	require.Equal(t, int32(1), sms.sent.Load())
}

func TestSMSClientRejectsGatewayFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":false,"message":"number blocked"}`))
	}))
	defer srv.Close()

	client := NewSMSClient(srv.URL, "k", "STOREFRONT")
	err := client.Send(context.Background(), "+15550100", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number blocked")
}
