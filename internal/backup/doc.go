// Package backup writes deterministic JSON snapshots of submitted records.
package backup
