// Package errkind defines the error-kind taxonomy shared by every
// core package, per the error handling design. Package-level error
// types (modpkg.Error, wad.Error, overlay.Error, library.Error, ...)
// embed a Kind so callers can branch on category without type-asserting
// down to a specific package's error type, and so the GUI IPC layer
// (internal/ipc) can map to its own closed code enum in one place.
package errkind

// Kind categorizes a failure for propagation and logging purposes.
type Kind int

const (
	// Format covers malformed on-disk data: bad magic, bad version,
	// truncated TOC/payload, unknown compression.
	Format Kind = iota
	// Validation covers caller-supplied data that fails a contract:
	// missing base layer, invalid slug, invalid semver, duplicate
	// profile name, missing layer directory.
	Validation
	// IO covers operating-system level failures: file absent,
	// permission denied, disk full.
	IO
	// MissingResource covers lookups that found nothing: WAD not in
	// game, malformed hex chunk name, unknown mod id.
	MissingResource
	// Recoverable covers conditions that are logged and skipped
	// without failing the surrounding operation: ambiguous WAD match,
	// override referencing an unknown WAD, override hash absent from
	// every game WAD, bad UTF-8 in a mod's file tree.
	Recoverable
	// Internal covers invariant violations and poisoned internal
	// state; always a programming error, never caller-triggerable.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Format:
		return "format"
	case Validation:
		return "validation"
	case IO:
		return "io"
	case MissingResource:
		return "missing_resource"
	case Recoverable:
		return "recoverable"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}
