// ABOUTME: Paper record type, status lifecycle constants and field-map codecs
// ABOUTME: for entries stored in the mesh's papers and mempool collections

package paper

import "encoding/json"

// Paper statuses as they appear in the mesh. Agents publish into MEMPOOL,
// validators promote to VERIFIED, and maintenance sweeps tombstone with
// PURGED (papers collection) or REJECTED (mempool collection).
const (
	StatusMempool    = "MEMPOOL"
	StatusUnverified = "UNVERIFIED"
	StatusVerified   = "VERIFIED"
	StatusPurged     = "PURGED"
	StatusRejected   = "REJECTED"
)

// ReasonUserCleanup is the rejected_reason written by operator-driven sweeps.
const ReasonUserCleanup = "CLEANUP_BY_USER_REQUEST"

// Paper is one entry in the papers (or mempool) collection. Field names
// mirror the mesh's JSON conventions; every field is optional on the wire.
type Paper struct {
	ID             string `json:"id,omitempty"`
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	Content        string `json:"content,omitempty"`
	Status         string `json:"status,omitempty"`
	RejectedReason string `json:"rejected_reason,omitempty"`
	Tier           string `json:"tier,omitempty"`
	ClaimState     string `json:"claim_state,omitempty"`
	CID            string `json:"cid,omitempty"`
	Timestamp      int64  `json:"ts,omitempty"`
}

// FromFields decodes a mesh field map into a Paper. Replicated entries are
// loosely typed, so every field is asserted defensively: wrong-typed or
// missing fields decode to zero values, and a nil map yields a zero Paper.
func FromFields(fields map[string]any) Paper {
	var p Paper
	if fields == nil {
		return p
	}
	p.ID = stringField(fields, "id")
	p.Title = stringField(fields, "title")
	p.Author = stringField(fields, "author")
	if p.Author == "" {
		p.Author = stringField(fields, "author_id")
	}
	p.Content = stringField(fields, "content")
	p.Status = stringField(fields, "status")
	p.RejectedReason = stringField(fields, "rejected_reason")
	p.Tier = stringField(fields, "tier")
	p.ClaimState = stringField(fields, "claim_state")
	p.CID = stringField(fields, "cid")
	p.Timestamp = intField(fields, "ts")
	return p
}

// Fields encodes the Paper as a mesh field map, omitting zero values so the
// result is safe to merge-write without clobbering fields it does not carry.
func (p Paper) Fields() map[string]any {
	fields := make(map[string]any)
	put := func(key, val string) {
		if val != "" {
			fields[key] = val
		}
	}
	put("id", p.ID)
	put("title", p.Title)
	put("author", p.Author)
	put("content", p.Content)
	put("status", p.Status)
	put("rejected_reason", p.RejectedReason)
	put("tier", p.Tier)
	put("claim_state", p.ClaimState)
	put("cid", p.CID)
	if p.Timestamp != 0 {
		fields["ts"] = p.Timestamp
	}
	return fields
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// intField accepts the numeric shapes JSON decoding produces: float64 from
// encoding/json, int64 from in-process stores, json.Number from decoders
// configured with UseNumber.
func intField(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}
