// Package kafkax holds the shared Kafka plumbing: broker list parsing,
// trace-context header propagation, and the readiness probe.
package kafkax

import "strings"

// SplitBrokers parses a comma-separated broker list, dropping empty entries.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
