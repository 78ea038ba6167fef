// Package ledger keeps a local SQLite journal of sweep runs and the papers
// they tombstoned. The mesh itself holds no authoritative history, so the
// journal is the operator's record of what a sweep did and when.
package ledger
