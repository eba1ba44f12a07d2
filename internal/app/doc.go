// Package app wires the expenditure service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from .env, environment variables and an optional YAML file
//  2. Initialize logging and OpenTelemetry
//  3. Open the optional relational store
//  4. Create the pipeline, run manager, data and health services
//  5. Build the chi router and middleware chain
//  6. Configure the HTTP server
//
// # Usage
//
//	a, err := app.NewApplication("")
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx)
//
// The command line reuses the same wiring through RunBatch, which executes
// a single batch without starting the server.
package app
