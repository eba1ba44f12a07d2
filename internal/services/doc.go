// Package services implements the application layer between the HTTP and
// CLI surfaces and the pipeline packages.
//
// PipelineService discovers raw sheets, runs an operations.Batch over them
// and persists each cleaned table as CSV and, when a database is configured,
// through storage.Store. Its Run method is the operations.RunFunc the run
// manager executes.
//
// DataService reads cleaned categories back, from the database when one is
// configured and from the cleaned output files otherwise.
//
// HealthService reports version, uptime, the active run and dependency
// readiness.
package services
