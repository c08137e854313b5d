package core

import "github.com/montanaflynn/stats"

// Summary describes the numeric y-values of one series.
type Summary struct {
	Title  string  `json:"title"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

// SummarizeSeries computes summary statistics over a series' numeric
// y-field values. Non-numeric y-values are skipped; a series with no
// numeric values yields Count 0 and zero statistics.
func SummarizeSeries(g SeriesGroup) Summary {
	values := make([]float64, 0, len(g.Rows))
	for _, row := range g.Rows {
		if n, ok := row[g.YField].(float64); ok {
			values = append(values, n)
		}
	}

	s := Summary{Title: g.Title, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	data := stats.Float64Data(values)
	s.Sum, _ = stats.Sum(data)
	s.Mean, _ = stats.Mean(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	if len(values) > 1 {
		s.StdDev, _ = stats.StandardDeviationSample(data)
	}
	return s
}
