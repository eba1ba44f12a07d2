// Package operations runs the expenditure pipeline over a batch of raw files.
//
// Batch applies anchor location, structuring, year standardization and
// cleaning to every file it is given. Each file produces one FileOutcome: a
// cleaned table or a skip entry for the cleaning report. One file's failure
// never stops the others.
//
// Files are processed sequentially by default. With Workers > 1 they are
// processed concurrently; every worker writes only its own outcome slot and
// a single collector merges the slots in listing order, so the report and the
// diagnostics sink see exactly what a sequential run would produce.
//
// Manager executes batches asynchronously for the HTTP API. It assigns run
// IDs, tracks status and keeps a bounded history in a MemoryRunStore. Only one
// run may be active at a time.
//
// Example usage:
//
//	batch := operations.NewBatch(reader, dataprocessing.NewGroupMeanImputer(), operations.BatchOptions{
//		Workers: 4,
//		Logger:  logger,
//		Sink: func(o operations.FileOutcome) {
//			fmt.Println(o.Filename, o.Skipped())
//		},
//	})
//	result := batch.Run(ctx, paths)
//	for _, table := range result.Ordered() {
//		fmt.Println(table.Category, len(table.Records))
//	}
package operations
