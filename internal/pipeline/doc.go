// Package pipeline is the staged checkpoint engine at the heart of mikup.
// It walks the five analysis stages in fixed order, reuses artifacts that
// validate against their expected shape, re-runs what is missing, forced,
// or stale, and keeps the durable run state consistent after every stage
// so an interrupted run resumes where it stopped.
package pipeline
