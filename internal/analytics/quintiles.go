package analytics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// QuintileLabels name the five governance groups from lowest to highest.
var QuintileLabels = [5]string{"Very low", "Low", "Medium", "High", "Very high"}

// QuintileGroup summarises the returns of one governance group.
type QuintileGroup struct {
	Label     string   `json:"label"`
	Lower     float64  `json:"lower"`
	Upper     float64  `json:"upper"`
	MeanPct   float64  `json:"mean_pct"`
	StdPct    *float64 `json:"std_pct"`
	Count     int      `json:"count"`
	Companies int      `json:"companies"`
}

// QuintileReport is the outcome of Quintiles.
type QuintileReport struct {
	Years  []int           `json:"years"`
	Edges  []float64       `json:"edges"`
	Groups []QuintileGroup `json:"groups"`
}

// Quintiles bins the samples of the given years (all when none are given)
// into five equal-frequency governance groups and summarises the annual
// returns of each. Edges are the 0, 20, 40, 60, 80 and 100 percent quantiles
// of the score; a bin holds scores in (lower, upper], the first one also its
// lower edge. Empty groups are omitted. Repeated edges mean the scores cannot
// be split into five groups and yield ErrInsufficientData.
func Quintiles(samples []Sample, years ...int) (*QuintileReport, error) {
	samples = WithReturns(FilterYears(samples, years...))
	if len(samples) == 0 {
		return nil, fmt.Errorf("quintiles: no samples with score and return: %w", ErrInsufficientData)
	}

	sorted := sortedCopy(scoresOf(samples))
	edges := make([]float64, 6)
	for i := range edges {
		edges[i] = quantile(sorted, float64(i)/5)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, fmt.Errorf("quintiles: bin edges are not unique: %w", ErrInsufficientData)
		}
	}

	buckets := make([][]Sample, 5)
	for _, s := range samples {
		bin := 4
		for b := 0; b < 5; b++ {
			if s.Score <= edges[b+1] {
				bin = b
				break
			}
		}
		buckets[bin] = append(buckets[bin], s)
	}

	report := &QuintileReport{Years: Years(samples), Edges: edges}
	for b, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		rets := returnsOf(bucket)
		group := QuintileGroup{
			Label:     QuintileLabels[b],
			Lower:     edges[b],
			Upper:     edges[b+1],
			MeanPct:   round(stat.Mean(rets, nil), 2),
			Count:     len(rets),
			Companies: len(Companies(bucket)),
		}
		if len(rets) > 1 {
			std := round(stat.StdDev(rets, nil), 4)
			group.StdPct = &std
		}
		report.Groups = append(report.Groups, group)
	}
	return report, nil
}
