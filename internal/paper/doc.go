// Package paper holds the research-paper domain model shared by the mesh
// client, the sweep handler, and the gateway client: the Paper record, its
// status lifecycle, match criteria, and the markdown normalization rules.
package paper
