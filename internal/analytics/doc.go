// Package analytics relates governance scores to annual returns.
//
// Every analysis starts from the engine output: Extract turns the annotated
// rows into Samples carrying company, sector, year, governance score and the
// annual return of the row's company-year. Rows are not collapsed to one per
// company-year, so a company with twelve monthly rows contributes twelve
// samples to the statistics.
//
// The analyses are
//
//   - Quintiles: equal-frequency governance groups with mean and dispersion of returns
//   - Correlations: per company Pearson r with a two-sided p-value
//   - Regress: global least squares of return on score with optional clipping
//   - Benchmark: each company's distance from its sector's median score
//   - CompanySeriesFor and SectorTrends: yearly development of score and return
//
// Statistics come from gonum (stat, stat/distuv, floats).
package analytics
