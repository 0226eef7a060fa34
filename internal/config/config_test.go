package config

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/enum"
	"github.com/gapjyk-pos/waiter/internal/mockpos"
)

// The default API URL must address routes where the dev backend actually
// mounts them, so cmd/mockpos plus cmd/waiter work out of the box.
func TestDefaultsMatchMockBackendRoutes(t *testing.T) {
	t.Setenv("POS_API_URL", "")
	cfg := Load()

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		t.Fatalf("default API URL does not parse: %v", err)
	}

	srv := httptest.NewServer(mockpos.NewServer(mockpos.SeedStore(), nil).Router())
	defer srv.Close()

	client := api.New(srv.URL+u.Path, nil, 5*time.Second)
	_, err = client.CreateOrder(context.Background(), api.CreateOrderRequest{
		OrderType: enum.TypeDineIn,
		TableID:   "table-1",
		Items:     []api.CreateOrderItemInput{{MenuItemID: "menu-tea", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("default base path does not reach the backend routes: %v", err)
	}
}

func TestLoadFallbacks(t *testing.T) {
	t.Setenv("POS_API_URL", "")
	t.Setenv("POS_HTTP_TIMEOUT", "")
	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:8081" {
		t.Errorf("api url: got %s", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.SubmitCooldown != 3*time.Second {
		t.Errorf("durations: %v / %v", cfg.HTTPTimeout, cfg.SubmitCooldown)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POS_API_URL", "https://pos.example.com")
	t.Setenv("POS_HTTP_TIMEOUT", "2s")
	t.Setenv("POS_SUBMIT_COOLDOWN", "bogus")
	cfg := Load()
	if cfg.APIBaseURL != "https://pos.example.com" {
		t.Errorf("api url: got %s", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 2*time.Second {
		t.Errorf("timeout: got %v", cfg.HTTPTimeout)
	}
	// Unparseable durations fall back.
	if cfg.SubmitCooldown != 3*time.Second {
		t.Errorf("cooldown: got %v", cfg.SubmitCooldown)
	}
}
