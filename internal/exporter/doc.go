// Package exporter writes the results of the annual return engine and the
// governance analyses.
//
// CSVWriter is the file writer: headers, appending, streaming and a UTF-8 BOM
// for Excel. WriteAnnotated writes the annotated table with the annual return
// at a fixed precision; WriteJSON writes any report as indented JSON.
//
// The markdown renderers turn reports into GitHub tables for the terminal:
//
//	md := exporter.AnnualSummaryMarkdown(report, 2)
//	out, _ := glamour.Render(md, "auto")
package exporter
