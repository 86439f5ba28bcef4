// Package dataprocessing turns input files into the raw tables consumed by the
// annual return engine.
//
// # Sources
//
// Workbooks (.xlsx, .xlsm) are read with excelize. The reader picks the first
// sheet whose leading rows contain a header naming both the company and the
// date column, skips any title rows above it and converts date serials into
// time values. CSV files are read with encoding/csv; the first record is the
// header and a UTF-8 byte-order mark is removed.
//
// # Usage
//
//	table, err := dataprocessing.ReadTable(ctx, "data/esg_dataset.xlsx", dataprocessing.DefaultReadOptions())
//	if err != nil {
//	    return err
//	}
//
// Governance datasets can be pre-filtered before computing returns:
//
//	prepared, stats, err := dataprocessing.PrepareGovernance(*table, dataprocessing.DefaultGovernanceOptions())
//
// # Error Handling
//
// File level failures are returned as *errors.AppError (not found, storage or
// parsing). PrepareGovernance reports absent columns with the engine's
// *returns.MissingColumnError so callers handle both stages the same way.
package dataprocessing
