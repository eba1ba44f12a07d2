// Package shared holds helpers used across the expenditure packages.
//
// The testutil subpackage provides raw-sheet fixtures (CSV and XLSX writers
// plus sample layouts) and a buffered slog handler for asserting on log
// output:
//
//	logger, logs := testutil.NewTestLogger(t)
//	testutil.WriteCSV(t, dir, "Education.csv", testutil.ExpenditureSheet())
//	// ...
//	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Pipeline run finished")
package shared
