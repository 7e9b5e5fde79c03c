// Package scanner is the delivery layer around the scan core: it acquires a
// page, runs the registry against it under an overall timeout, serializes
// scans of the same page and exports Prometheus metrics.
package scanner
