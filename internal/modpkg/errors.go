package modpkg

import "github.com/LeagueToolkit/league-mod-sub000/internal/errkind"

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

func errMissingChunk(pathHash uint64) error {
	return newErr(errkind.MissingResource, "chunk not found", nil)
}

func errInvalidMetaChunk(path string) error {
	return newErr(errkind.Format, "InvalidMetaChunk: "+path+" has a non-sentinel layer or wad index", nil)
}

func errMissingBaseLayer() error {
	return newErr(errkind.Validation, "MissingBaseLayer: modpkg must declare a \"base\" layer at priority 0", nil)
}

func errLayerNotFound(name string) error {
	return newErr(errkind.Validation, "LayerNotFound: "+name, nil)
}
