// Package ingestion schedules chunk classification for batches of documents.
//
// A Pipeline takes documents (or file paths, through a DocumentLoader), splits
// the work into batches and submits every chunk of a batch to the request
// pool of a shared Controller. Each chunk is written only by the task that
// classifies it; the task that resolves a document's last chunk aggregates
// the document, and the coordinating loop hands it to the CheckpointWriter,
// which persists it from the write pool.
//
// Chunk failures are recorded on the chunk and never fail the document.
// Checkpoint write failures are collected and returned from Run after every
// batch has been attempted. Re-running over the same inputs overwrites the
// same checkpoints.
//
// The BindingStage reuses the same Controller to run the binding task over
// flagged chunks of persisted documents.
package ingestion
