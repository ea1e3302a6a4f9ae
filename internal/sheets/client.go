package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ service.SheetExchange = (*Client)(nil)

// headerRows is how many leading rows are formatted as the metadata block.
const headerRows = 5

// Client reads and writes whole tabs of one spreadsheet.
type Client struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewClient creates a Google Sheets client for the configured spreadsheet.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		config:  config,
		service: srv,
		logger:  logger,
	}, nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

func (c *Client) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  c.config.RetryAttempts,
		InitialDelay: c.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// ReadSheet returns the displayed values of a tab, one slice per row.
// Trailing empty cells and rows are not returned by the API.
func (c *Client) ReadSheet(ctx context.Context, sheetName string) ([][]string, error) {
	var resp *sheets.ValueRange
	err := common.WithRetry(ctx, func() error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Get(c.config.SpreadsheetID, sheetRange(sheetName)).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).
			Do()
		return classifyError(err)
	}, c.retryOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	rows := toRows(resp.Values)
	c.logger.Debug("read sheet", "sheet", sheetName, "rows", len(rows))
	return rows, nil
}

// WriteSheet replaces the contents of a tab with rows, creating the tab
// when it does not exist. Values are written as entered, so prices stay text.
func (c *Client) WriteSheet(ctx context.Context, sheetName string, rows [][]string) error {
	sheetID, err := c.ensureSheet(ctx, sheetName)
	if err != nil {
		return err
	}

	err = common.WithRetry(ctx, func() error {
		_, err := c.service.Spreadsheets.Values.Clear(c.config.SpreadsheetID, sheetRange(sheetName), &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		return classifyError(err)
	}, c.retryOptions())
	if err != nil {
		return fmt.Errorf("failed to clear sheet %q: %w", sheetName, err)
	}

	valueRange := &sheets.ValueRange{Values: toValues(rows)}
	err = common.WithRetry(ctx, func() error {
		_, err := c.service.Spreadsheets.Values.Update(c.config.SpreadsheetID, sheetRange(sheetName)+"!A1", valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return classifyError(err)
	}, c.retryOptions())
	if err != nil {
		return fmt.Errorf("failed to write sheet %q: %w", sheetName, err)
	}

	if c.config.FormatHeaders {
		err = common.WithRetry(ctx, func() error {
			return classifyError(c.applyFormatting(ctx, sheetID, rows))
		}, c.retryOptions())
		if err != nil {
			c.logger.Warn("failed to apply formatting", "sheet", sheetName, "error", err)
		}
	}

	c.logger.Info("wrote sheet",
		"spreadsheet_id", c.config.SpreadsheetID,
		"sheet", sheetName,
		"rows_written", len(rows))
	return nil
}

// ensureSheet returns the ID of the named tab, adding it when missing.
func (c *Client) ensureSheet(ctx context.Context, sheetName string) (int64, error) {
	var spreadsheet *sheets.Spreadsheet
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheet, err = c.service.Spreadsheets.Get(c.config.SpreadsheetID).Context(ctx).Do()
		return classifyError(err)
	}, c.retryOptions())
	if err != nil {
		return 0, fmt.Errorf("unable to access spreadsheet %s: %w", c.config.SpreadsheetID, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}

	var resp *sheets.BatchUpdateSpreadsheetResponse
	err = common.WithRetry(ctx, func() error {
		var err error
		resp, err = c.service.Spreadsheets.BatchUpdate(c.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				},
			}},
		}).Context(ctx).Do()
		return classifyError(err)
	}, c.retryOptions())
	if err != nil {
		return 0, fmt.Errorf("failed to add sheet %q: %w", sheetName, err)
	}

	c.logger.Info("added sheet", "sheet", sheetName)
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		return resp.Replies[0].AddSheet.Properties.SheetId, nil
	}
	return 0, nil
}

// applyFormatting bolds the metadata labels and the column header row.
func (c *Client) applyFormatting(ctx context.Context, sheetID int64, rows [][]string) error {
	bold := func(startRow, endRow, endCol int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: 0,
					EndColumnIndex:   endCol,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		}
	}

	header := min(int64(headerRows), int64(len(rows)))
	requests := []*sheets.Request{bold(0, header, 1)}
	if header < int64(len(rows)) {
		requests = append(requests, bold(header, header+1, int64(len(rows[header]))))
	}
	requests = append(requests, &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:   sheetID,
				Dimension: "COLUMNS",
			},
		},
	})

	_, err := c.service.Spreadsheets.BatchUpdate(c.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

// sheetRange quotes a tab name for A1 notation.
func sheetRange(sheetName string) string {
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'"
}

func toRows(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			rows[i][j] = strings.TrimSpace(fmt.Sprint(cell))
		}
	}
	return rows
}

func toValues(rows [][]string) [][]any {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = make([]any, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return values
}

// classifyError maps API failures onto retry decisions.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code == http.StatusNotFound,
		apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range"):
		return common.Permanent(fmt.Errorf("%w: %w", common.ErrSheetNotFound, err))
	case apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", common.ErrSheetsConnection, err)
	default:
		return common.Permanent(err)
	}
}
