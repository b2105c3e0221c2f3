// Package artifact persists generated documents.
package artifact

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store reads and writes whole artifacts by name. Write replaces any previous
// content atomically: readers see either the old or the new bytes.
// Read returns sentinel.ErrNotFound for unknown names.
type Store interface {
	Write(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
}

// Ext is the extension of every artifact.
const Ext = ".pdf"

// Paths maps participant identities to artifact names and public URLs.
type Paths struct {
	prefix string
}

// NewPaths returns Paths serving artifacts under prefix, e.g. "/artifacts".
func NewPaths(prefix string) Paths {
	prefix = "/" + strings.Trim(prefix, "/")
	return Paths{prefix: prefix}
}

// Prefix is the URL prefix, with a leading slash and no trailing one.
func (p Paths) Prefix() string {
	return p.prefix
}

// Name is the artifact name for an identity: "{id}.pdf".
func (p Paths) Name(id string) string {
	return id + Ext
}

// URL is the public path recorded on the participant.
func (p Paths) URL(name string) string {
	return path.Join(p.prefix, name)
}

// Resolve maps a recorded URL back to an artifact name.
func (p Paths) Resolve(url string) (string, error) {
	rest, ok := strings.CutPrefix(url, p.prefix+"/")
	if !ok {
		return "", fmt.Errorf("artifact path %q is outside %s", url, p.prefix)
	}
	if !ValidName(rest) {
		return "", fmt.Errorf("invalid artifact name %q", rest)
	}
	return rest, nil
}

// ValidName reports whether name is a flat "{stem}.pdf" made of letters,
// digits, '-' and '_'.
func ValidName(name string) bool {
	stem, ok := strings.CutSuffix(name, Ext)
	if !ok || stem == "" {
		return false
	}
	for _, r := range stem {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
