// Package dataprocessing turns loosely structured state-finance sheets into
// canonical long-format tables.
//
// # Architecture
//
// The package is organized as a chain of pure transformations:
//
// 1. Anchor: finds the "States" marker cell inside a headerless grid
// 2. Structure: slices the grid at the anchor, promotes the header row and keeps numbered state rows
// 3. Melt: reshapes year columns into one record per (state, year)
// 4. Years: canonicalizes fiscal year labels and drops unusable ones
// 5. Imputer: fills missing or zero values with the state mean and removes duplicates
//
// # Usage
//
//	table, err := dataprocessing.Normalize(grid, dataprocessing.CategoryName("Revenue Expenditure.csv"))
//	if err != nil {
//	    // errors.Is(err, dataprocessing.ErrAnchorNotFound) or ErrStructuring
//	}
//	cleaned, anomalies := dataprocessing.NewGroupMeanImputer().Clean(table)
//
// # Data Flow
//
//	RawGrid → Anchor → StructuredTable → NormalizedTable → CleanedTable
//
// Nothing in this package performs I/O or keeps state between calls; every
// step returns a new value and leaves its input untouched.
package dataprocessing
