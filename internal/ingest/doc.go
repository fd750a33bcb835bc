// Package ingest drives the archive-to-PostGIS pipeline.
//
// A Walker lists the zip archives under a root directory, filters their
// entries by name, decodes each qualifying entry as a JSON array of raw
// position records, validates them into a Batch and hands the batch to the
// loader inside one transaction per entry. A failing entry is rolled back
// and the walk moves on; only a missing root directory stops a run.
package ingest
