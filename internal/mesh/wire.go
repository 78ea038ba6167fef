// ABOUTME: JSON wire frames exchanged with mesh peers: puts carrying entry
// ABOUTME: fields and gets requesting a collection stream.

package mesh

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// frame is one JSON text message on a peer socket. Every frame carries a
// "#" message id; peers gossip frames onward, so the same id can arrive
// through several sockets and is deduped before dispatch.
//
//	{"#":"<uuid>","get":{"#":"papers"}}
//	{"#":"<uuid>","put":{"papers":{"abc123":{"status":"PURGED"}}}}
//
// Peers also send acks ("@" names the frame being answered, "ok"/"err" the
// outcome); the client decodes but does not act on them. A put entry's
// field map is null when the peer only announces the id.
type frame struct {
	ID      string                         `json:"#,omitempty"`
	ReplyTo string                         `json:"@,omitempty"`
	Get     *getRequest                    `json:"get,omitempty"`
	Put     map[string]map[string]fieldMap `json:"put,omitempty"`
	OK      any                            `json:"ok,omitempty"`
	Err     string                         `json:"err,omitempty"`
}

// getRequest asks a peer to stream a collection: existing entries first,
// then live updates.
type getRequest struct {
	Collection string `json:"#"`
}

// fieldMap is an entry's flat fields. The alias keeps the frame type
// readable where three map levels nest.
type fieldMap = map[string]any

func newGetFrame(collection string) frame {
	return frame{
		ID:  uuid.New().String(),
		Get: &getRequest{Collection: collection},
	}
}

func newPutFrame(collection, id string, fields map[string]any) frame {
	return frame{
		ID:  uuid.New().String(),
		Put: map[string]map[string]fieldMap{collection: {id: fields}},
	}
}

// wsURL converts a bootstrap endpoint to its websocket form. Mesh configs
// list peers as http(s) gateway URLs or ws(s) URLs; both are accepted.
func wsURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing peer url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("peer url %q: unsupported scheme %q", raw, u.Scheme)
	}
	return u.String(), nil
}
