// Package dedupe provides a TTL cache over recently seen wire-frame ids so
// frames gossiped back through multiple peers are processed once.
package dedupe
