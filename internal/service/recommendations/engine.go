package recommendations

import (
	"fmt"
	"sort"
	"time"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/pkg/period"
)

const (
	DefaultMinEfficiency       = 0.5
	DefaultMinMonthlyFrequency = 2.0
)

// Thresholds configure the improvement and frequency rules.
type Thresholds struct {
	// MinEfficiency is the minimum cuttings per planted unit.
	MinEfficiency float64
	// MinMonthlyFrequency is the minimum number of cuts per 30 days.
	MinMonthlyFrequency float64
}

// Engine evaluates the recommendation rules. It performs no I/O and reads no clock.
type Engine struct {
	thresholds Thresholds
}

func NewEngine(t Thresholds) *Engine {
	if t.MinEfficiency <= 0 {
		t.MinEfficiency = DefaultMinEfficiency
	}
	if t.MinMonthlyFrequency <= 0 {
		t.MinMonthlyFrequency = DefaultMinMonthlyFrequency
	}
	return &Engine{thresholds: t}
}

// Generate applies every rule to the bed and returns the matches, highest
// priority first. Cut frequency is measured up to asOf. The result is never
// empty.
func (e *Engine) Generate(bed models.GrowBed, stats models.Statistics, trend models.TrendSummary, asOf time.Time) []models.Recommendation {
	var out []models.Recommendation

	if stats.EventCount == 0 {
		out = append(out, models.Recommendation{
			Category: models.CategoryAction,
			Priority: models.PriorityHigh,
			Title:    "Sin cortes registrados",
			Message:  "Esta cama no tiene cortes registrados. Registra el primer corte para empezar a medir su produccion.",
		})
	}

	if bed.PlantedQuantity > 0 {
		efficiency := float64(stats.TotalCuttings) / float64(bed.PlantedQuantity)
		if efficiency < e.thresholds.MinEfficiency {
			out = append(out, models.Recommendation{
				Category: models.CategoryImprovement,
				Priority: models.PriorityMedium,
				Title:    "Eficiencia baja",
				Message: fmt.Sprintf("La cama produce %.2f esquejes por planta sembrada (minimo esperado %.2f). Revisa sustrato, riego y estado de las plantas madre.",
					period.Round2(efficiency), e.thresholds.MinEfficiency),
			})
		}
	}

	if stats.EventCount > 0 && stats.FirstEventDate != nil {
		frequency := CutFrequency(stats.EventCount, *stats.FirstEventDate, asOf)
		if frequency < e.thresholds.MinMonthlyFrequency {
			out = append(out, models.Recommendation{
				Category: models.CategoryFrequency,
				Priority: models.PriorityMedium,
				Title:    "Cortes poco frecuentes",
				Message: fmt.Sprintf("Se registran %.2f cortes cada 30 dias (minimo esperado %.2f). Aumenta la frecuencia de corte.",
					period.Round2(frequency), e.thresholds.MinMonthlyFrequency),
			})
		}
	}

	if trend.Trend == models.TrendShrinking {
		out = append(out, models.Recommendation{
			Category: models.CategoryAlert,
			Priority: models.PriorityHigh,
			Title:    "Produccion en descenso",
			Message:  fmt.Sprintf("La produccion reciente bajo %.2f%% respecto al periodo anterior.", -trend.ChangePercent),
		})
	}

	if bed.State != models.BedStateActive {
		out = append(out, models.Recommendation{
			Category: models.CategoryState,
			Priority: models.PriorityMedium,
			Title:    "Cama no activa",
			Message:  fmt.Sprintf("La cama esta en estado %q. Reactivala o retirala de los reportes.", bed.State),
		})
	}

	if len(out) == 0 {
		return []models.Recommendation{{
			Category: models.CategoryPraise,
			Priority: models.PriorityInfo,
			Title:    "Buen desempeno",
			Message:  "La cama mantiene una produccion constante. Sigue asi.",
		}}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority.Rank() < out[j].Priority.Rank() })
	return out
}

// CutFrequency returns cuts per 30 days since the first event. Histories
// shorter than 30 days count as one month.
func CutFrequency(eventCount int, first, now time.Time) float64 {
	months := float64(period.DaysBetween(first, now)) / 30
	if months < 1 {
		months = 1
	}
	return float64(eventCount) / months
}
