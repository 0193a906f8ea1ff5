package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
)

var fixedNow = time.Date(2026, time.October, 16, 20, 0, 0, 0, time.UTC)

type fakeDashboard struct {
	err error
}

func (f fakeDashboard) GetEsquejesByNursery(context.Context, string) (models.NurseryCuttingsChart, error) {
	return models.NurseryCuttingsChart{
		Period: "week",
		From:   fixedNow.AddDate(0, 0, -7),
		To:     fixedNow,
		Rows: []models.NurseryCuttingsRow{
			{NurseryID: "vivero-b", Name: "Vivero B", TotalCuttings: 60, EventCount: 2},
			{NurseryID: "vivero-a", Name: "Vivero A", TotalCuttings: 30, EventCount: 1},
		},
	}, f.err
}

func (f fakeDashboard) GetTopProductiveBeds(_ context.Context, limit int, _, criterion string) (models.TopBeds, error) {
	return models.TopBeds{Criterion: criterion, Beds: []models.RankedBed{
		{Rank: 1, BedSummary: models.BedSummary{NurseryName: "Vivero A", BedID: "a1", PlantType: "pothos", TotalCuttings: 130}},
	}}, nil
}

func (f fakeDashboard) GetGlobalSummary(context.Context, string) (models.GlobalSummary, error) {
	return models.GlobalSummary{
		NurseryCount:                2,
		BedCount:                    3,
		TotalPlanted:                35,
		PeriodCuttings:              90,
		AllTimeCuttings:             230,
		AveragePeriodCuttingsPerBed: 30,
		PartialFailure:              models.PartialFailure{Skipped: []models.SkippedUnit{{NurseryID: "vivero-c"}}},
	}, nil
}

type fakeSender struct {
	to, body string
	err      error
}

func (f *fakeSender) SendText(_ context.Context, to, body string) (string, error) {
	f.to, f.body = to, body
	return "wamid.1", f.err
}

type fakeWriter struct {
	rows [][]interface{}
}

func (f *fakeWriter) AppendRows(_ context.Context, rows [][]interface{}) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func TestBuildWeeklyDigest(t *testing.T) {
	t.Parallel()
	svc := NewService(fakeDashboard{}, nil, "", nil, nil)

	digest, err := svc.BuildWeeklyDigest(context.Background())
	require.NoError(t, err)

	assert.Contains(t, digest, "Resumen semanal (2026-10-09 al 2026-10-16)")
	assert.Contains(t, digest, "Viveros: 2 | Camas: 3 | Plantas sembradas: 35")
	assert.Contains(t, digest, "Esquejes en la semana: 90 (30.00 por cama)")
	assert.Contains(t, digest, "- Vivero B: 60 esquejes en 2 cortes")
	assert.Contains(t, digest, "1. Vivero A / a1 (pothos): 130 esquejes")
	assert.Contains(t, digest, "Aviso: 1 lecturas fallaron")
}

func TestBuildWeeklyDigestPropagatesErrors(t *testing.T) {
	t.Parallel()
	svc := NewService(fakeDashboard{err: errors.New("store down")}, nil, "", nil, nil)

	_, err := svc.BuildWeeklyDigest(context.Background())
	assert.ErrorContains(t, err, "store down")
}

func TestSendWeeklyDigest(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	svc := NewService(fakeDashboard{}, sender, "50688887777", nil, nil)

	require.NoError(t, svc.SendWeeklyDigest(context.Background()))
	assert.Equal(t, "50688887777", sender.to)
	assert.Contains(t, sender.body, "Resumen semanal")

	sender.err = errors.New("rate limited")
	assert.ErrorContains(t, svc.SendWeeklyDigest(context.Background()), "rate limited")
}

func TestSendWeeklyDigestDisabled(t *testing.T) {
	t.Parallel()
	svc := NewService(fakeDashboard{err: errors.New("never called")}, nil, "", nil, nil)

	assert.NoError(t, svc.SendWeeklyDigest(context.Background()))
}

func TestExportWeekly(t *testing.T) {
	t.Parallel()
	writer := &fakeWriter{}
	svc := NewService(fakeDashboard{}, nil, "", writer, nil)
	svc.now = func() time.Time { return fixedNow }

	n, err := svc.ExportWeekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []interface{}{"2026-10-12", "vivero-b", "Vivero B", 60, 2}, writer.rows[0])

	disabled := NewService(fakeDashboard{}, nil, "", nil, nil)
	n, err = disabled.ExportWeekly(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
