// Package files locates raw category sheets on disk and loads them as
// untyped grids.
//
// Discovery lists raw files in directory-listing order, filtered by extension
// and optionally by category. GridReader loads a single file (.csv or .xlsx)
// into a domain.RawGrid without interpreting its structure.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/srv/expenditure")
//	raw, err := discovery.FindRawFiles("data/raw", []string{".csv", ".xlsx"}, nil)
//
//	reader := files.NewGridReader(files.ReaderOptions{})
//	grid, err := reader.ReadGrid(raw[0].Path)
package files
