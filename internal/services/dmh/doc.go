// Package dmh implements the REST client for the Data Management Hub, the
// downstream record-of-truth that accepts validated distribution records.
package dmh
