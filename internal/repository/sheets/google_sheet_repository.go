package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/stockledger/internal/config"
)

var errEmptyTab = errors.New("sheet tab must not be empty")

// Repository is the tab-level access the mirror needs.
type Repository interface {
	AppendRow(ctx context.Context, tab string, values []interface{}) error
	FirstRow(ctx context.Context, tab string) ([]interface{}, error)
}

// GoogleSheetRepository appends rows to tabs of one spreadsheet.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository authenticates with a service account file.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRow adds values after the last filled row of tab. Values are stored
// raw so amounts keep their two decimals.
func (r *GoogleSheetRepository) AppendRow(ctx context.Context, tab string, values []interface{}) error {
	if tab == "" {
		return errEmptyTab
	}

	_, err := r.service.Spreadsheets.Values.
		Append(r.spreadsheetID, tab+"!A1", &sheetsapi.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", tab, err)
	}

	r.logger.Debug("sheet row appended", zap.String("tab", tab), zap.Int("cells", len(values)))
	return nil
}

// FirstRow returns the first row of tab, empty when the tab has no data.
func (r *GoogleSheetRepository) FirstRow(ctx context.Context, tab string) ([]interface{}, error) {
	if tab == "" {
		return nil, errEmptyTab
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, tab+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return resp.Values[0], nil
}
