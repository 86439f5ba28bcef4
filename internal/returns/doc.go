// Package returns derives calendar-year annual returns from monthly price
// observations.
//
// The Engine is a pure transformation of one input table into one annotated
// table. It runs four stages in order:
//
//  1. Normalizer: cleans column names, coerces company, date and price, drops
//     rows that cannot be used.
//  2. Deduplicator: keeps the earliest observation per company and calendar
//     month, ties broken by input order.
//  3. Monthly return calculator: price[i]/price[i-1]-1 inside each company-year.
//     Returns never chain across a year boundary.
//  4. Annual aggregator: compounds the monthly returns of a company-year under a
//     completeness policy and joins the percentage back onto every row of that
//     company-year.
//
// # Policies
//
//   - strict: a value only for full years.
//   - ytd_partial: full years, or the raw compounded return of a partial year
//     with enough months.
//   - annualize_by_span: like ytd_partial but partial years are annualised over
//     the month span between first and last observation.
//
// A year is full when it has at least MinMonthsPerYear distinct months and at
// least max(1, MinMonthsPerYear-1) monthly returns.
//
// # Usage
//
//	engine, err := returns.NewEngine(returns.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	out, err := engine.Compute(ctx, table)
//
// The engine holds no per-call state and is safe for concurrent use.
package returns
