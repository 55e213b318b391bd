//go:build integration

package google

import (
	"context"
	"os"
	"testing"
)

// Integration tests require real credentials and a workbook holding the
// Accueil and Template sheets.
// Run with: go test -tags=integration ./internal/sheets/google

func integrationClient(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	opts := Options{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		OAuthClientJSON:    os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"),
		OAuthClientFile:    os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"),
		OAuthTokenJSON:     os.Getenv("GOOGLE_OAUTH_TOKEN_JSON"),
		OAuthTokenFile:     os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"),
	}
	if opts.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	c, err := New(context.Background(), opts)
	if err != nil {
		t.Skipf("credentials not usable: %v", err)
	}
	return c
}

func TestIntegration_TemplateRoundTrip(t *testing.T) {
	c := integrationClient(t)
	ctx := context.Background()
	const scratch = "zz integration scratch"

	params, err := c.ReadTable(ctx, "Accueil")
	if err != nil {
		t.Fatalf("read Accueil: %v", err)
	}
	t.Logf("Accueil has %d rows", len(params))

	_, _ = c.DeleteSheet(ctx, scratch)
	sh, err := c.DuplicateSheet(ctx, "Template", scratch)
	if err != nil {
		t.Fatalf("duplicate template: %v", err)
	}
	t.Cleanup(func() {
		if _, err := c.DeleteSheet(context.Background(), scratch); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	})

	if err := c.WriteRanges(ctx, scratch, nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	pdf, err := c.ExportPDF(ctx, sh)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		t.Fatalf("export did not return a PDF (%d bytes)", len(pdf))
	}
}
