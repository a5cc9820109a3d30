// Command dmhmr drives the distribution-announcement pipeline: it extracts
// records from downloaded announcement files, validates them, and manages
// their submission lifecycle against DMH, including the post-submission
// backup snapshots.
package main
