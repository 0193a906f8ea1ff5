package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/OlmanCE/agro-track-sub000/internal/config"
)

// Exporter appends dashboard rows to a spreadsheet.
type Exporter struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

// NewExporter authenticates with the service account credentials file and
// targets cfg.ExportRange of cfg.SpreadsheetID.
func NewExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return newExporter(svc, cfg, logger), nil
}

func newExporter(svc *sheetsapi.Service, cfg config.SheetsConfig, logger *zap.Logger) *Exporter {
	return &Exporter{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.ExportRange,
		logger:        logger,
	}
}

// AppendRows writes rows below the existing data of the export range.
func (e *Exporter) AppendRows(ctx context.Context, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if e.sheetRange == "" {
		return fmt.Errorf("export range must not be empty")
	}

	call := e.values.Append(e.spreadsheetID, e.sheetRange, &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append %d rows into range %s: %w", len(rows), e.sheetRange, err)
	}

	e.logger.Debug("rows appended to sheet", zap.String("range", e.sheetRange), zap.Int("rows", len(rows)))
	return nil
}
