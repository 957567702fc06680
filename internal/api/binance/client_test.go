package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetPremiumQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/ticker/price":
			if r.URL.Query().Get("symbol") != "BTCUSDT" {
				t.Errorf("symbol = %s", r.URL.Query().Get("symbol"))
			}
			w.Write([]byte(`{"symbol":"BTCUSDT","price":"50000.00"}`))
		case "/fx":
			w.Write([]byte(`{"result":"success","rates":{"KRW":1400.5,"EUR":0.9}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, FXURL: srv.URL + "/fx", RequestTimeout: time.Second})
	q, err := c.GetPremiumQuote(context.Background(), "BTCUSDT", 72000000)
	if err != nil {
		t.Fatalf("GetPremiumQuote() error = %v", err)
	}
	if q.ForeignPrice != 50000 || q.FXRate != 1400.5 || q.LocalPrice != 72000000 {
		t.Errorf("quote = %+v", q)
	}
}

func TestGetFXRateFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{FXURL: srv.URL, FallbackFXRate: 1350, RequestTimeout: time.Second})
	rate, err := c.GetFXRate(context.Background())
	if err != nil || rate != 1350 {
		t.Errorf("GetFXRate() = %v, %v, want fallback 1350", rate, err)
	}

	c = NewClient(ClientOptions{FXURL: srv.URL, RequestTimeout: time.Second})
	if _, err := c.GetFXRate(context.Background()); err == nil {
		t.Errorf("GetFXRate() without fallback should fail")
	}
}

func TestGetPriceRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"n/a"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, RequestTimeout: time.Second})
	if _, err := c.GetPrice(context.Background(), "BTCUSDT"); err == nil {
		t.Errorf("GetPrice() error = nil, want error")
	}
}

func TestForeignSymbol(t *testing.T) {
	tests := map[string]string{
		"KRW-BTC": "BTCUSDT",
		"KRW-eth": "ETHUSDT",
		"BTCUSDT": "BTCUSDT",
	}
	for in, want := range tests {
		if got := ForeignSymbol(in); got != want {
			t.Errorf("ForeignSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
