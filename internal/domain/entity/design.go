// Package entity defines the transient domain values exchanged with the
// design API. Nothing here is persisted; payload subtrees the application
// does not interpret stay as raw JSON.
package entity

import "encoding/json"

// File is the metadata and document tree of a design file.
type File struct {
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	LastModified  string          `json:"lastModified"`
	ThumbnailURL  string          `json:"thumbnailUrl"`
	SchemaVersion int             `json:"schemaVersion"`
	Document      json.RawMessage `json:"document"`
}

// Node is one entry of a node-subtree response.
type Node struct {
	Document json.RawMessage `json:"document"`
}

// NodeSet is the response to a node-subtree query: the file name plus the
// requested nodes keyed by node ID. Nodes the API could not resolve are
// null entries.
type NodeSet struct {
	Name  string           `json:"name"`
	Nodes map[string]*Node `json:"nodes"`
}

// ImageFills maps image references used as fills in a file to short-lived
// download URLs.
type ImageFills struct {
	Error  bool `json:"error"`
	Status int  `json:"status"`
	Meta   struct {
		Images map[string]string `json:"images"`
	} `json:"meta"`
}

// RenderResult maps node IDs to rendered image URLs. Nodes that could not
// be rendered are present with an empty URL. Err carries the API-level
// error message, if any.
type RenderResult struct {
	Err    string            `json:"err"`
	Images map[string]string `json:"images"`
}
