// Package config handles configuration loading for the cleanup tooling.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults; every
// command also runs with no config file at all.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from P2PCLAW_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/p2pclaw/p2pclaw.yaml
//  3. ~/.config/p2pclaw/p2pclaw.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	ledger:
//	  path: "${HOME}/.local/share/p2pclaw/ledger.db"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	sweep:
//	  window: "30s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Mesh peers (websocket endpoints dialed at startup):
//
//	mesh:
//	  peers:
//	    - "wss://relay.p2pclaw.example/gun"
//	  handshake_timeout: "10s"
//
// Sweep criteria and window:
//
//	sweep:
//	  collection: "papers"
//	  mempool_collection: "mempool"
//	  title_prefix: "Decentralized Peer Review"
//	  author: "Agent-7"
//	  window: "30s"
//
// Gateway HTTP client:
//
//	gateway:
//	  base_url: "http://127.0.0.1:8765"
//	  agent_id: "p2pclaw-cleanup"
//	  timeout: "15s"
//
// Republish pipeline:
//
//	republish:
//	  limit: 20
//	  interval: "1500ms"
//	  min_content_len: 200
//	  author_tag: "[Reindexed]"
//	  skip_ids: []
//
// Run journal (empty path disables it):
//
//	ledger:
//	  path: "${HOME}/.local/share/p2pclaw/ledger.db"
//
// Logging:
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "color"  # color, text, json
//
// # Usage
//
// Load the resolved configuration:
//
//	cfg, err := config.Resolve(flagConfigPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
