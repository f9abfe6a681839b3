// Package services implements the driving port interfaces.
// Services contain the query understanding, retrieval, enrichment and
// conversation logic and orchestrate calls to driven ports (adapters).
//
// Services never import adapters; every index is injected through a port.
package services
