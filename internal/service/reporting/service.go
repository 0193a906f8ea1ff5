package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/service/dashboard"
	"github.com/OlmanCE/agro-track-sub000/pkg/period"
)

const (
	dateLayout  = "2006-01-02"
	digestTopN  = 3
	digestRange = period.Week
)

type Dashboard interface {
	GetEsquejesByNursery(ctx context.Context, periodName string) (models.NurseryCuttingsChart, error)
	GetTopProductiveBeds(ctx context.Context, limit int, periodName, criterion string) (models.TopBeds, error)
	GetGlobalSummary(ctx context.Context, periodName string) (models.GlobalSummary, error)
}

// Sender delivers a text message to a recipient.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// RowWriter appends rows to an external sheet.
type RowWriter interface {
	AppendRows(ctx context.Context, rows [][]interface{}) error
}

// Service renders the weekly production digest and pushes it to the
// configured outlets. A nil sender or writer disables that outlet.
type Service struct {
	dashboard Dashboard
	sender    Sender
	recipient string
	writer    RowWriter
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(d Dashboard, sender Sender, recipient string, writer RowWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dashboard: d,
		sender:    sender,
		recipient: recipient,
		writer:    writer,
		logger:    logger,
		now:       time.Now,
	}
}

// BuildWeeklyDigest renders the last seven days as a plain text message.
func (s *Service) BuildWeeklyDigest(ctx context.Context) (string, error) {
	summary, err := s.dashboard.GetGlobalSummary(ctx, digestRange)
	if err != nil {
		return "", fmt.Errorf("load global summary: %w", err)
	}
	chart, err := s.dashboard.GetEsquejesByNursery(ctx, digestRange)
	if err != nil {
		return "", fmt.Errorf("load esquejes by nursery: %w", err)
	}
	top, err := s.dashboard.GetTopProductiveBeds(ctx, digestTopN, digestRange, dashboard.CriterionTotal)
	if err != nil {
		return "", fmt.Errorf("load top beds: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Resumen semanal (%s al %s)\n", chart.From.Format(dateLayout), chart.To.Format(dateLayout))
	fmt.Fprintf(&b, "Viveros: %d | Camas: %d | Plantas sembradas: %d\n", summary.NurseryCount, summary.BedCount, summary.TotalPlanted)
	fmt.Fprintf(&b, "Esquejes en la semana: %d (%.2f por cama)\n", summary.PeriodCuttings, summary.AveragePeriodCuttingsPerBed)
	fmt.Fprintf(&b, "Esquejes historicos: %d\n", summary.AllTimeCuttings)

	if len(chart.Rows) > 0 {
		b.WriteString("\nPor vivero:\n")
		for _, row := range chart.Rows {
			fmt.Fprintf(&b, "- %s: %d esquejes en %d cortes\n", row.Name, row.TotalCuttings, row.EventCount)
		}
	}

	if len(top.Beds) > 0 {
		b.WriteString("\nCamas mas productivas:\n")
		for _, bed := range top.Beds {
			fmt.Fprintf(&b, "%d. %s / %s (%s): %d esquejes\n", bed.Rank, bed.NurseryName, bed.BedID, bed.PlantType, bed.TotalCuttings)
		}
	}

	if skipped := len(summary.Skipped) + len(chart.Skipped) + len(top.Skipped); skipped > 0 {
		fmt.Fprintf(&b, "\nAviso: %d lecturas fallaron y se omitieron.\n", skipped)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// SendWeeklyDigest builds the digest and delivers it to the recipient.
func (s *Service) SendWeeklyDigest(ctx context.Context) error {
	if s.sender == nil || s.recipient == "" {
		s.logger.Debug("digest delivery disabled")
		return nil
	}

	digest, err := s.BuildWeeklyDigest(ctx)
	if err != nil {
		return err
	}
	id, err := s.sender.SendText(ctx, s.recipient, digest)
	if err != nil {
		return fmt.Errorf("deliver weekly digest: %w", err)
	}

	s.logger.Info("weekly digest sent", zap.String("message_id", id))
	return nil
}

// ExportWeekly appends one row per nursery with the week's cutting totals and
// returns the number of rows written.
func (s *Service) ExportWeekly(ctx context.Context) (int, error) {
	if s.writer == nil {
		s.logger.Debug("sheet export disabled")
		return 0, nil
	}

	chart, err := s.dashboard.GetEsquejesByNursery(ctx, digestRange)
	if err != nil {
		return 0, fmt.Errorf("load esquejes by nursery: %w", err)
	}

	week := period.WeekKey(s.now().UTC())
	rows := make([][]interface{}, 0, len(chart.Rows))
	for _, row := range chart.Rows {
		rows = append(rows, []interface{}{week, row.NurseryID, row.Name, row.TotalCuttings, row.EventCount})
	}
	if err := s.writer.AppendRows(ctx, rows); err != nil {
		return 0, err
	}

	s.logger.Info("weekly export written", zap.String("week", week), zap.Int("rows", len(rows)))
	return len(rows), nil
}
