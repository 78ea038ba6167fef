// Package mesh implements the client side of the replicated paper mesh.
//
// The mesh is a keyed graph store: collection → entry id → flat field map.
// Replication between peers is eventually consistent and gossip-based, so a
// subscriber sees entries at least once, in no guaranteed order, sometimes
// with fields that have not replicated yet (nil), and including entries this
// process wrote itself.
//
// Client speaks the websocket wire protocol to a set of bootstrap peers.
// MemStore provides the same contract in memory for tests and loopback
// seeding. Both satisfy Store.
package mesh
