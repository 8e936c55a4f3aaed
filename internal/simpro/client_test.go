package simpro

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"worksync/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()

	// Built by hand so ambient env vars never change test behavior.
	cfg := config.Config{
		SimproTokenDomain:  "https://tenant.example.test",
		SimproAPIBase:      "https://api.example.test",
		SimproClientID:     "id",
		SimproClientSecret: "secret",
		SimproTimeoutMs:    10000,
		SimproRateLimitRPS: 1000,
		ReadRetries:        3,
		ReadRetryDelayMs:   0,
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatal(err)
	}
	client.httpClient = &http.Client{Transport: rt}
	client.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return client
}

func jsonResponse(status int, payload any) *http.Response {
	blob, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(blob))),
		Header:     make(http.Header),
	}
}

func TestListAllContactsPaginatesAndRetries(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		if r.URL.Path == "/api/v1.0/companies" {
			return jsonResponse(200, []map[string]any{{"ID": 7}}), nil
		}
		if r.URL.Path != "/api/v1.0/companies/7/contacts/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}

		attempt++
		switch r.URL.Query().Get("page") {
		case "1":
			if attempt == 1 {
				// First read fails, the bounded retry should recover it.
				return jsonResponse(500, map[string]string{"error": "boom"}), nil
			}
			return jsonResponse(200, []map[string]any{
				{"ID": 1, "GivenName": "John", "FamilyName": "Smith"},
				{"ID": 2, "GivenName": "Jane", "FamilyName": "Doe"},
			}), nil
		case "2":
			return jsonResponse(200, []map[string]any{{"ID": 3, "GivenName": "Amir", "FamilyName": "Khan"}}), nil
		default:
			return jsonResponse(200, []map[string]any{}), nil
		}
	})

	contacts, err := client.ListAllContacts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 3 {
		t.Fatalf("len=%d", len(contacts))
	}
	if contacts[0].GivenName != "John" || contacts[2].FamilyName != "Khan" {
		t.Fatalf("unexpected contacts: %+v", contacts)
	}
}

func TestCompanyIDFailsWhenEmpty(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(200, []map[string]any{}), nil
	})

	if _, err := client.CompanyID(context.Background()); err == nil {
		t.Fatal("expected error for empty company list")
	}
}

func TestCreateContactIsNotRetried(t *testing.T) {
	calls := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/api/v1.0/companies" {
			return jsonResponse(200, []map[string]any{{"ID": 7}}), nil
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		calls++
		return jsonResponse(500, map[string]string{"error": "down"}), nil
	})

	if _, err := client.CreateContact(context.Background(), "John", "Smith", "07700 900123"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("write was retried: calls=%d", calls)
	}
}

func TestCreateJobAppendsVisitTag(t *testing.T) {
	var gotDescription string
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == "/api/v1.0/companies" {
			return jsonResponse(200, []map[string]any{{"ID": 7}}), nil
		}
		blob, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(blob, &payload)
		gotDescription, _ = payload["Description"].(string)
		return jsonResponse(200, map[string]any{"ID": 55}), nil
	})

	date, _ := time.Parse("2006-01-02", "2026-03-02")
	jobID, err := client.CreateJob(context.Background(), 10, 20, "CTR-1001", date, "SHUTTER", 1)
	if err != nil {
		t.Fatal(err)
	}
	if jobID != 55 {
		t.Fatalf("jobID=%d", jobID)
	}
	if gotDescription != "SHUTTER | VISIT 2" {
		t.Fatalf("description=%q", gotDescription)
	}
}
