package dmh_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dmhmr/internal/config"
	"dmhmr/internal/extract"
	"dmhmr/internal/services"
	"dmhmr/internal/services/dmh"
	"dmhmr/internal/template"
	"dmhmr/internal/validate"
)

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.DMH.BaseURL = baseURL
	cfg.DMH.LoginPath = "/api/login"
	cfg.DMH.SubmitPath = "/api/submit"
	cfg.DMH.Username = "svc-dmhmr"
	cfg.DMH.TimeoutSeconds = 5
	return cfg
}

func sampleRecord() *validate.Record {
	exDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return &validate.Record{
		Header:   validate.Header{ClientID: "AURR", Group: "MR"},
		Template: "asx_mit_notice",
		TypeTag:  template.TagEstimated,
		Fields: map[string]validate.Value{
			"asset_id": {Raw: "ABC123", Type: template.TypeString, Status: extract.StatusMatched, Valid: true},
			"ex_date":  {Raw: "15/01/2025", Type: template.TypeDate, Status: extract.StatusMatched, Valid: true, Date: exDate},
			"pay_date": {Raw: "31/01/2025", Type: template.TypeDate, Status: extract.StatusMatched, Valid: true, Date: exDate.AddDate(0, 0, 16)},
			"tax_rate": {Raw: "0.3", Type: template.TypeDecimal, Status: extract.StatusDefaulted, Valid: true, Number: 0.3},
		},
	}
}

func TestBuildRequest(t *testing.T) {
	req := dmh.BuildRequest(sampleRecord())
	if req.AssetID != "ABC123" || req.ClientID != "AURR" {
		t.Fatalf("unexpected identity: %+v", req)
	}
	if req.ExDate != "2025-01-15" || req.PayDate != "2025-01-31" {
		t.Fatalf("unexpected dates: %s / %s", req.ExDate, req.PayDate)
	}
	if req.Fields["tax_rate"] != 0.3 {
		t.Fatalf("numeric fields not flattened: %v", req.Fields)
	}
	if _, ok := req.Fields["asset_id"]; ok {
		t.Fatal("string fields must not travel in the fields map")
	}
}

func TestSubmitSuccess(t *testing.T) {
	var logins atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			logins.Add(1)
			var creds struct {
				Username string `json:"username"`
			}
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username != "svc-dmhmr" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "session-1"})
		case "/api/submit":
			if r.Header.Get("Authorization") != "Bearer session-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.Header.Get("X-Request-ID") == "" {
				t.Error("submission missing request id")
			}
			var req dmh.Request
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AssetID == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(dmh.Response{Success: true, Code: "OK"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := dmh.NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		resp, err := client.Submit(context.Background(), dmh.BuildRequest(sampleRecord()))
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if !resp.Success || resp.Code != "OK" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}
	if logins.Load() != 1 {
		t.Fatalf("expected a single login, got %d", logins.Load())
	}
}

func TestSubmitRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "session-1"})
		case "/api/submit":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(dmh.Response{Success: false, Code: "DUP", Message: "record already exists"})
		}
	}))
	defer server.Close()

	client, err := dmh.NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	resp, err := client.Submit(context.Background(), dmh.BuildRequest(sampleRecord()))
	if err != nil {
		t.Fatalf("rejection must not be a transport error: %v", err)
	}
	if resp.Success || resp.Code != "DUP" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "session-1"})
			return
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := dmh.NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Submit(ctx, dmh.BuildRequest(sampleRecord()))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
	if services.SubmissionCause(err) != "timeout" {
		t.Fatalf("cause = %q, want timeout", services.SubmissionCause(err))
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := dmh.NewClient(testConfig(""))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNoopAcknowledges(t *testing.T) {
	resp, err := dmh.Noop{}.Submit(context.Background(), dmh.Request{})
	if err != nil || !resp.Success {
		t.Fatalf("noop should acknowledge: %+v %v", resp, err)
	}
}
