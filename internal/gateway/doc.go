// Package gateway is an HTTP client for a mesh node's REST surface.
//
// # Overview
//
// Mesh nodes expose a small JSON API next to their websocket port. This
// package wraps the endpoints the maintenance tooling needs:
//
//   - GET /latest-papers?limit=N - recent papers, newest first
//   - GET /mempool?limit=N - papers awaiting validation
//   - POST /publish-paper - publish a paper into the mempool
//   - POST /validate-paper - cast a validation on a mempool paper
//
// # Response Shapes
//
// Feed endpoints answer either a bare JSON array or an object wrapping it
// under "papers", depending on the node version; the client accepts both.
// Write endpoints answer an envelope:
//
//	{"success": true, "paperId": "...", "cid": "..."}
//	{"success": false, "error": "why it failed"}
//
// A 2xx response with success=false is surfaced as ErrRejected.
//
// # Usage
//
//	gw := gateway.New(gateway.Config{BaseURL: "https://node.example/api"}, logger)
//	papers, err := gw.LatestPapers(ctx, 20)
//
// Every call is bounded by the configured timeout regardless of the
// caller's context.
package gateway
