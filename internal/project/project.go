// Package project implements ModProject, the authoring-time descriptor
// read from a mod.config.json/.toml at a project root, and its
// validation rules (slug, semver, base-layer priority).
package project

import (
	"regexp"
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
)

// Author is either a bare name or a name with an explicit role.
type Author struct {
	Name string `json:"name" toml:"name"`
	Role string `json:"role,omitempty" toml:"role,omitempty"`
}

// License is either an SPDX identifier or a custom name+url pair.
type License struct {
	SPDX string `json:"spdx,omitempty" toml:"spdx,omitempty"`
	Name string `json:"name,omitempty" toml:"name,omitempty"`
	URL  string `json:"url,omitempty" toml:"url,omitempty"`
}

// Layer is one content layer declared by the project, with its
// per-layer string-table override map.
type Layer struct {
	Name            string            `json:"name" toml:"name"`
	Priority        int32             `json:"priority" toml:"priority"`
	Description     string            `json:"description,omitempty" toml:"description,omitempty"`
	StringOverrides map[string]string `json:"stringOverrides,omitempty" toml:"stringOverrides,omitempty"`
}

// ModProject is the parsed mod.config.json/.toml authoring descriptor.
type ModProject struct {
	Name        string    `json:"name" toml:"name"`
	DisplayName string    `json:"displayName" toml:"displayName"`
	Version     string    `json:"version" toml:"version"`
	Description string    `json:"description,omitempty" toml:"description,omitempty"`
	Distributor string    `json:"distributor,omitempty" toml:"distributor,omitempty"`
	Authors     []Author  `json:"authors,omitempty" toml:"authors,omitempty"`
	License     *License  `json:"license,omitempty" toml:"license,omitempty"`
	Tags        []string  `json:"tags,omitempty" toml:"tags,omitempty"`
	Champions   []string  `json:"champions,omitempty" toml:"champions,omitempty"`
	Maps        []string  `json:"maps,omitempty" toml:"maps,omitempty"`
	Layers      []Layer   `json:"layers,omitempty" toml:"layers,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty" toml:"thumbnail,omitempty"`

	// Transformers is accepted for forward-compatibility with the
	// authoring format but unused by the core; it is preserved
	// verbatim on round-trip.
	Transformers []map[string]any `json:"transformers,omitempty" toml:"transformers,omitempty"`
}

const BaseLayerName = "base"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

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

// ValidateSlug reports whether name is a valid slug: lowercase
// alphanumeric segments joined by single hyphens, no leading or
// trailing hyphen.
func ValidateSlug(name string) bool {
	return name != "" && slugPattern.MatchString(name)
}

// ValidateSemver reports whether v is a dotted-triple semantic
// version, optionally with a prerelease and/or build suffix.
func ValidateSemver(v string) bool {
	return semverPattern.MatchString(v)
}

// Validate checks the project's own invariants: a valid slug, a valid
// semver, and -- if a "base" layer is declared at all -- that it has
// priority 0.
func (p *ModProject) Validate() error {
	if !ValidateSlug(p.Name) {
		return newErr(errkind.Validation, "invalid project name slug: "+p.Name, nil)
	}
	if !ValidateSemver(p.Version) {
		return newErr(errkind.Validation, "invalid semver version: "+p.Version, nil)
	}
	for _, l := range p.Layers {
		if strings.EqualFold(l.Name, BaseLayerName) && l.Priority != 0 {
			return newErr(errkind.Validation, "base layer must have priority 0", nil)
		}
	}
	return nil
}

// HasBaseLayer reports whether the project declares a "base" layer.
func (p *ModProject) HasBaseLayer() bool {
	for _, l := range p.Layers {
		if l.Name == BaseLayerName {
			return true
		}
	}
	return false
}

// SortedLayers returns the project's layers sorted by (priority asc,
// name asc), per the overlay builder's override-collection order.
func (p *ModProject) SortedLayers() []Layer {
	out := make([]Layer, len(p.Layers))
	copy(out, p.Layers)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func less(a, b Layer) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Name < b.Name
}

// Defaults fills in the zero-valued fields every project is allowed to
// omit: a "base" layer at priority 0 if none is declared.
func (p *ModProject) Defaults() {
	if !p.HasBaseLayer() {
		p.Layers = append([]Layer{{Name: BaseLayerName, Priority: 0}}, p.Layers...)
	}
}
