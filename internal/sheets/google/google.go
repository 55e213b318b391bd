package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "timesheets/internal/sheets"
)

// DefaultExportBase is the prefix of the spreadsheet export endpoint.
const DefaultExportBase = "https://docs.google.com/spreadsheets/d/"

// Scopes needed to edit the workbook, manage exported files and export
// sheets as PDF.
var Scopes = []string{gsheet.SpreadsheetsScope, gdrive.DriveScope}

type Client struct {
	sheets        *gsheet.Service
	drive         *gdrive.Service
	http          *http.Client
	spreadsheetID string
	exportBase    string
}

// Options selects the workbook and the credentials. A service account is
// preferred; an OAuth client with a token produced by cmd/oauth-init is
// the fallback.
type Options struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
}

// Ensure interface conformance
var (
	_ ports.Workbook    = (*Client)(nil)
	_ ports.Exporter    = (*Client)(nil)
	_ ports.FolderStore = (*Client)(nil)
)

// New creates a client for the Sheets, Drive and export endpoints sharing
// one authenticated HTTP client.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	hc, err := newHTTPClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(ctx, opts.SpreadsheetID, hc)
}

// NewWithHTTPClient builds the client on an already authenticated HTTP
// client. Extra options are passed to both API services.
func NewWithHTTPClient(ctx context.Context, spreadsheetID string, hc *http.Client, extra ...goption.ClientOption) (*Client, error) {
	opts := append([]goption.ClientOption{goption.WithHTTPClient(hc)}, extra...)
	sheetsSvc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{
		sheets:        sheetsSvc,
		drive:         driveSvc,
		http:          hc,
		spreadsheetID: spreadsheetID,
		exportBase:    DefaultExportBase,
	}, nil
}

// newHTTPClient returns an OAuth2 client authorised for Scopes.
func newHTTPClient(ctx context.Context, opts Options) (*http.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())

	saJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	saFile := strings.TrimSpace(opts.ServiceAccountFile)

	slog.InfoContext(ctx, "Checking Google credentials",
		"has_service_account_json", saJSON != "",
		"service_account_file", saFile,
		"has_oauth_client", opts.OAuthClientJSON != "" || opts.OAuthClientFile != "")

	switch {
	case saJSON != "" || saFile != "":
		data, err := jsonOrFile(saJSON, saFile)
		if err != nil {
			return nil, fmt.Errorf("read service account: %w", err)
		}
		conf, err := googleoauth.JWTConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("service account config: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials", "email", conf.Email)
		return conf.Client(ctx), nil

	case opts.OAuthClientJSON != "" || opts.OAuthClientFile != "":
		clientData, err := jsonOrFile(opts.OAuthClientJSON, opts.OAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client: %w", err)
		}
		conf, err := googleoauth.ConfigFromJSON(clientData, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("oauth config: %w", err)
		}
		tokenData, err := jsonOrFile(opts.OAuthTokenJSON, opts.OAuthTokenFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth token: %w", err)
		}
		var tok oauth2.Token
		if err := json.Unmarshal(tokenData, &tok); err != nil {
			return nil, fmt.Errorf("decode oauth token: %w", err)
		}
		slog.InfoContext(ctx, "Using OAuth user credentials")
		return conf.Client(ctx, &tok), nil

	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or an OAuth client and token)")
	}
}

func jsonOrFile(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("neither inline JSON nor file provided")
	}
	return os.ReadFile(path)
}

// newHTTPClientWithPooling creates the base transport used underneath the
// OAuth2 client, with connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second, // PDF export can be slow to start
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   120 * time.Second,
	}
}

// ReadTable implements ports.TableReader. Cells formatted as dates are
// returned as time.Time, other numbers as float64.
func (c *Client) ReadTable(ctx context.Context, sheetName string) ([][]any, error) {
	resp, err := c.sheets.Spreadsheets.Get(c.spreadsheetID).
		Ranges(quoteSheet(sheetName)).
		IncludeGridData(true).
		Fields("sheets(properties(sheetId,title),data(rowData(values(effectiveValue,effectiveFormat(numberFormat)))))").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheetName, err)
	}
	if len(resp.Sheets) == 0 {
		return nil, fmt.Errorf("%w: %q", ports.ErrSheetNotFound, sheetName)
	}
	return gridValues(resp.Sheets[0].Data), nil
}

// DeleteSheet implements ports.SheetManager.
func (c *Client) DeleteSheet(ctx context.Context, name string) (bool, error) {
	props, err := c.lookupSheet(ctx, name)
	if err != nil {
		return false, err
	}
	if props == nil {
		return false, nil
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteSheet: &gsheet.DeleteSheetRequest{
			SheetId:         props.SheetId,
			ForceSendFields: []string{"SheetId"},
		},
	}}}
	if _, err := c.sheets.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("delete sheet %s: %w", name, err)
	}
	return true, nil
}

// DuplicateSheet implements ports.SheetManager.
func (c *Client) DuplicateSheet(ctx context.Context, source, name string) (ports.Sheet, error) {
	props, err := c.lookupSheet(ctx, source)
	if err != nil {
		return ports.Sheet{}, err
	}
	if props == nil {
		return ports.Sheet{}, fmt.Errorf("%w: %q", ports.ErrSheetNotFound, source)
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DuplicateSheet: &gsheet.DuplicateSheetRequest{
			SourceSheetId:   props.SheetId,
			NewSheetName:    name,
			ForceSendFields: []string{"SourceSheetId"},
		},
	}}}
	resp, err := c.sheets.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return ports.Sheet{}, fmt.Errorf("duplicate %s as %s: %w", source, name, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].DuplicateSheet == nil || resp.Replies[0].DuplicateSheet.Properties == nil {
		return ports.Sheet{}, fmt.Errorf("duplicate %s as %s: empty reply", source, name)
	}
	p := resp.Replies[0].DuplicateSheet.Properties
	return ports.Sheet{ID: p.SheetId, Name: p.Title}, nil
}

// WriteRanges implements ports.SheetManager. Values are entered as if
// typed by a user so that formulas are evaluated.
func (c *Client) WriteRanges(ctx context.Context, sheet string, ranges []ports.Range) error {
	if len(ranges) == 0 {
		return nil
	}
	data := make([]*gsheet.ValueRange, 0, len(ranges))
	for _, rg := range ranges {
		data = append(data, &gsheet.ValueRange{
			Range:  quoteSheet(sheet) + "!" + rg.A1,
			Values: rg.Values,
		})
	}
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data}
	if _, err := c.sheets.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %d ranges to %s: %w", len(ranges), sheet, err)
	}
	return nil
}

// lookupSheet returns nil properties when the sheet does not exist.
func (c *Client) lookupSheet(ctx context.Context, name string) (*gsheet.SheetProperties, error) {
	resp, err := c.sheets.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets(properties(sheetId,title))").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return s.Properties, nil
		}
	}
	return nil, nil
}
