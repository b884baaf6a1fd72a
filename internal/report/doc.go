// Package report renders a ReportDocument as markdown or JSON text and derives the colored
// console summary shown before the report.
package report
