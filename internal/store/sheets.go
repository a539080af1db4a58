package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore keeps each table as a tab of a Google Sheets spreadsheet.
// Row 1 of every tab is the header.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string

	mu     sync.Mutex
	titles map[string]bool
}

// OpenSheets connects to the spreadsheet identified by spreadsheetID.
func OpenSheets(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// SheetsOptionsFromEnv returns client options for a service account key,
// taken from credentialsFile or, when empty, from
// GOOGLE_APPLICATION_CREDENTIALS_JSON / GOOGLE_APPLICATION_CREDENTIALS. The
// value may be inline JSON or a file path. No options means application
// default credentials.
func SheetsOptionsFromEnv(credentialsFile string) []option.ClientOption {
	creds := strings.TrimSpace(credentialsFile)
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	}
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// Append writes rows with values.append after making sure the tab exists
// and its header covers every column of rows.
func (s *SheetsStore) Append(ctx context.Context, table string, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureTab(ctx, table); err != nil {
		return err
	}

	header, err := s.header(ctx, table)
	if err != nil {
		return err
	}
	header, changed := mergeHeader(header, rows)
	if changed {
		vr := &sheets.ValueRange{Values: [][]any{toCells(header)}}
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, table+"!1:1", vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("update %s header: %w", table, err)
		}
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = toCells(rowValues(header, row))
	}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, table, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %s rows: %w", table, err)
	}
	return nil
}

// ReadAll reads the whole tab. A missing tab reads as empty.
func (s *SheetsStore) ReadAll(ctx context.Context, table string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadTitles(ctx); err != nil {
		return nil, err
	}
	if !s.titles[table] {
		return nil, nil
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}

	header := fromCells(resp.Values[0])
	out := make([]Row, 0, len(resp.Values)-1)
	for _, cells := range resp.Values[1:] {
		vals := fromCells(cells)
		if isBlank(vals) {
			continue
		}
		out = append(out, rowFromValues(header, vals))
	}
	return out, nil
}

// Close is a no-op; the HTTP client holds no resources that need release.
func (s *SheetsStore) Close() error { return nil }

func (s *SheetsStore) header(ctx context.Context, table string) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", table, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return fromCells(resp.Values[0]), nil
}

func (s *SheetsStore) loadTitles(ctx context.Context) error {
	if s.titles != nil {
		return nil
	}
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields(googleapi.Field("sheets.properties.title")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet tabs: %w", err)
	}
	titles := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles[sh.Properties.Title] = true
		}
	}
	s.titles = titles
	return nil
}

func (s *SheetsStore) ensureTab(ctx context.Context, table string) error {
	if err := s.loadTitles(ctx); err != nil {
		return err
	}
	if s.titles[table] {
		return nil
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: table},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create tab %s: %w", table, err)
	}
	s.titles[table] = true
	return nil
}

func toCells(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func fromCells(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		out[i] = fmt.Sprint(c)
	}
	return out
}
