// Package exporter writes pipeline results as CSV files.
//
// CSVWriter is the low-level writer with header, BOM and streaming
// support. DatasetExporter builds on it to produce the three outputs of a run:
//
//	<Category>_transformed.csv   melted table, raw labels (State,Year,Value)
//	<Category>_cleaned.csv       cleaned table (State,Year,Value)
//	expenditure_analysis.csv     every cleaned table plus Exp_Category
//
// Example usage:
//
//	exp := exporter.NewDatasetExporter(paths, cfg.Pipeline.ExcelBOM, logger)
//	if _, err := exp.ExportCleaned(table); err != nil {
//		return err
//	}
package exporter
