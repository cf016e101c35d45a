package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "token", "123456", "789", 2*time.Second, zap.NewNop())
}

func TestCreateCampaign(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("objective") != ObjectiveTraffic {
			t.Errorf("objective = %q, want %q", r.Form.Get("objective"), ObjectiveTraffic)
		}
		if r.Form.Get("status") != StatusActive {
			t.Errorf("status = %q, want %q", r.Form.Get("status"), StatusActive)
		}
		if r.Form.Get("access_token") != "token" {
			t.Errorf("access_token missing")
		}
		w.Write([]byte(`{"id":"cmp_1"}`))
	})

	id, err := c.CreateCampaign(context.Background(), "My Campaign")
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	if id != "cmp_1" {
		t.Errorf("id = %q, want cmp_1", id)
	}
	if gotPath != "/act_123456/campaigns" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestCreateAdSetBudgetInMinorUnits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.Form.Get("daily_budget"); got != "556" {
			t.Errorf("daily_budget = %q, want 556", got)
		}
		if got := r.Form.Get("bid_strategy"); got != "LOWEST_COST_WITHOUT_CAP" {
			t.Errorf("bid_strategy = %q", got)
		}
		w.Write([]byte(`{"id":"set_1"}`))
	})

	id, err := c.CreateAdSet(context.Background(), AdSetParams{
		Name:             "My AdSet",
		CampaignID:       "cmp_1",
		DailyBudgetCents: 556,
		Country:          "US",
		EndTime:          time.Now().Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateAdSet: %v", err)
	}
	if id != "set_1" {
		t.Errorf("id = %q, want set_1", id)
	}
}

func TestGraphErrorDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"error_subcode":33,"error_user_title":"Budget too low","error_user_msg":"The daily budget must be at least..."}}`))
	})

	_, err := c.CreateCampaign(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GraphError, got %T: %v", err, err)
	}
	if ge.Code != 100 || ge.ErrorUserTitle != "Budget too low" {
		t.Errorf("unexpected GraphError: %+v", ge)
	}
}

func TestIsUnsupportedDelete(t *testing.T) {
	tests := []struct {
		name     string
		err      GraphError
		expected bool
	}{
		{"by code", GraphError{Code: 100, Message: "something else"}, true},
		{"by message", GraphError{Code: 368, Message: "Unsupported delete request for this node"}, true},
		{"neither", GraphError{Code: 368, Message: "permission denied"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsUnsupportedDelete(); got != tt.expected {
				t.Errorf("IsUnsupportedDelete() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetAdLineage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fields"); got != "adset_id,campaign_id" {
			t.Errorf("fields = %q", got)
		}
		w.Write([]byte(`{"id":"ad_1","adset_id":"set_1","campaign_id":"cmp_1"}`))
	})

	lin, err := c.GetAdLineage(context.Background(), "ad_1")
	if err != nil {
		t.Fatalf("GetAdLineage: %v", err)
	}
	if lin.AdSetID != "set_1" || lin.CampaignID != "cmp_1" {
		t.Errorf("lineage = %+v", lin)
	}
}

func TestGetInsightsEmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	ins, err := c.GetInsights(context.Background(), "ad_1")
	if err != nil {
		t.Fatalf("GetInsights: %v", err)
	}
	if ins == nil {
		t.Fatal("expected zero-value insights for empty data")
	}
}

func TestConfigured(t *testing.T) {
	full := NewClient("http://x", "t", "a", "p", 0, zap.NewNop())
	if !full.Configured() {
		t.Error("fully configured client reported unconfigured")
	}
	partial := NewClient("http://x", "t", "", "p", 0, zap.NewNop())
	if partial.Configured() {
		t.Error("client without ad account reported configured")
	}
}
