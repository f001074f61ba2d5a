package amfi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/pricing"
)

const sampleCatalog = `Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date

Open Ended Schemes(Debt Scheme - Banking and PSU Fund)

Aditya Birla Sun Life Mutual Fund

119551;INF209KA12Z1;INF209KA13Z9;Aditya Birla Sun Life Banking & PSU Debt Fund;345.1288;28-Aug-2026
120503;INF846K01EW2;-;Axis Bluechip Fund - Direct Plan - Growth;95.4321;28-Aug-2026
bogus line without delimiters
118989;INF179K01VY8;INF179K01VZ5;HDFC Index Fund-NIFTY 50 Plan;not-a-number;28-Aug-2026
`

func TestParseCatalogLine(t *testing.T) {
	now := time.Now()

	quote, ok := parseCatalogLine("120503;INF846K01EW2;-;Axis Bluechip Fund - Direct Plan - Growth;95.4321;28-Aug-2026", now)
	if !ok {
		t.Fatal("expected valid row to parse")
	}
	if quote.Symbol != "120503" {
		t.Errorf("expected scheme code 120503, got %q", quote.Symbol)
	}
	if quote.Price != 95.4321 {
		t.Errorf("expected NAV 95.4321, got %.4f", quote.Price)
	}
	if quote.Name != "Axis Bluechip Fund - Direct Plan - Growth" {
		t.Errorf("unexpected scheme name: %q", quote.Name)
	}
	if quote.Currency != "INR" {
		t.Errorf("expected INR, got %q", quote.Currency)
	}

	// Header row: NAV column is not numeric.
	if _, ok := parseCatalogLine("Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date", now); ok {
		t.Error("header row should not parse")
	}

	// Section and fund-house rows have no delimiters.
	if _, ok := parseCatalogLine("Open Ended Schemes(Equity Scheme - Large Cap Fund)", now); ok {
		t.Error("section row should not parse")
	}

	// Truncated row.
	if _, ok := parseCatalogLine("119551;INF209KA12Z1", now); ok {
		t.Error("truncated row should not parse")
	}

	// Blank line.
	if _, ok := parseCatalogLine("", now); ok {
		t.Error("blank line should not parse")
	}
}

func TestFetchCatalogParsesListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spages/NAVAll.txt" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(sampleCatalog))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	catalog, err := client.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two parseable schemes; the NAV-less row and noise lines are skipped.
	if len(catalog) != 2 {
		t.Fatalf("expected 2 schemes, got %d", len(catalog))
	}
	if catalog["119551"].Price != 345.1288 {
		t.Errorf("expected NAV 345.1288, got %.4f", catalog["119551"].Price)
	}
	if _, ok := catalog["118989"]; ok {
		t.Error("row with unparseable NAV should be skipped")
	}
}

func TestFetchCatalogEmptyListingIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Scheme Code;ISIN;ISIN;Scheme Name;Net Asset Value;Date\n\nno schemes today\n"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.FetchCatalog(context.Background())
	var perr *pricing.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *pricing.Error, got %T: %v", err, err)
	}
	if perr.Kind != pricing.KindMalformedData {
		t.Errorf("expected malformed_upstream_data, got %s", perr.Kind)
	}
}

func TestFetchCatalogUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.FetchCatalog(context.Background())
	if pricing.KindOf(err) != pricing.KindUpstreamFailure {
		t.Errorf("expected upstream_failure, got %s", pricing.KindOf(err))
	}
}
