// Package content abstracts over the three places a mod's override
// files can live -- an unpacked directory, a modpkg archive, or a
// legacy Fantome zip -- behind one read-only Provider interface the
// overlay builder consumes without caring which it got.
package content

import (
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

// Override is one override file: its logical path relative to the
// owning WAD, and its uncompressed bytes ready for the WAD writer.
type Override struct {
	RelPath string
	Bytes   []byte
}

// Provider is the read surface the overlay builder needs from a mod's
// content, regardless of its backing archive format. Implementations
// may hold stateful readers, so methods require exclusive access (the
// caller is expected to serialize calls per instance, e.g. via a
// mutex, if shared across goroutines).
type Provider interface {
	// ModProject returns the mod's authoring descriptor.
	ModProject() (*project.ModProject, error)

	// ListLayerWads returns the set of .wad.client names that have any
	// override content in the named layer.
	ListLayerWads(layerName string) ([]string, error)

	// ReadWadOverrides returns every override file targeting wadName
	// within layerName, as (in-WAD relative path, uncompressed bytes)
	// pairs.
	ReadWadOverrides(layerName, wadName string) ([]Override, error)

	// Close releases any resources (open file handles) held by the
	// provider.
	Close() error
}

// Error is returned by every fallible operation in this package.
type Error struct {
	Kind errkind.Kind
	msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.msg + ": " + e.Err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrKind exposes the error's category for the GUI IPC code mapping.
func (e *Error) ErrKind() errkind.Kind { return e.Kind }

func newErr(kind errkind.Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, Err: cause}
}
