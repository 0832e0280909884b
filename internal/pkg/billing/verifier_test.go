package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"
)

func signPayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyValidSignature(t *testing.T) {
	v := NewVerifier(testConfig())
	now := time.Now()
	v.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{}}}`)
	header := signPayload("whsec_test", now.Unix(), payload)

	event, err := v.Verify(payload, header)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if event.ID != "evt_1" || event.Type != "customer.subscription.updated" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	v := NewVerifier(testConfig())
	now := time.Now()
	v.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1"}`)
	header := signPayload("whsec_test", now.Unix(), payload)

	if _, err := v.Verify([]byte(`{"id":"evt_2"}`), header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewVerifier(testConfig())
	now := time.Now()
	v.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1"}`)
	header := signPayload("whsec_other", now.Unix(), payload)

	if _, err := v.Verify(payload, header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyMalformedHeader(t *testing.T) {
	v := NewVerifier(testConfig())

	for _, header := range []string{"", "garbage", "t=notanumber,v1=deadbeef", "v1=deadbeef"} {
		if _, err := v.Verify([]byte(`{}`), header); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("header %q: expected ErrInvalidSignature, got %v", header, err)
		}
	}
}

func TestVerifyStaleTimestamp(t *testing.T) {
	v := NewVerifier(testConfig())
	now := time.Now()
	v.now = func() time.Time { return now }

	payload := []byte(`{"id":"evt_1"}`)
	stale := now.Add(-DefaultSignatureTolerance - time.Minute).Unix()
	header := signPayload("whsec_test", stale, payload)

	if _, err := v.Verify(payload, header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for stale timestamp, got %v", err)
	}
}

func TestVerifyDisabledParsesDirectly(t *testing.T) {
	cfg := testConfig()
	cfg.VerifySignatures = false
	v := NewVerifier(cfg)

	event, err := v.Verify([]byte(`{"id":"evt_9","type":"x"}`), "")
	if err != nil {
		t.Fatalf("unexpected error in dev mode: %v", err)
	}
	if event.ID != "evt_9" {
		t.Fatalf("unexpected event id %q", event.ID)
	}

	if _, err := v.Verify([]byte(`not json`), ""); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for malformed JSON, got %v", err)
	}
}

func TestVerifyEmptyPayload(t *testing.T) {
	verifying := NewVerifier(testConfig())

	dev := testConfig()
	dev.VerifySignatures = false
	skipping := NewVerifier(dev)

	for _, v := range []*Verifier{verifying, skipping} {
		if _, err := v.Verify(nil, ""); !errors.Is(err, ErrEmptyPayload) {
			t.Fatalf("expected ErrEmptyPayload, got %v", err)
		}
	}
}
