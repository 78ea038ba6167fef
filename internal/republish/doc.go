// Package republish cleans up and re-posts papers through a gateway.
//
// The pipeline fetches the latest papers, strips leaked HTML, rebuilds
// the canonical section layout, and publishes the cleaned markdown back
// through the gateway, paced by a token bucket so a run never floods the
// node. Junk papers (skip-listed, untitled, or too short after
// stripping) are counted and left alone.
package republish
