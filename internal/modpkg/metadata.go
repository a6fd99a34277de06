package modpkg

import (
	"github.com/shamaton/msgpack/v2"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
)

// Author is either a bare name or a name with an explicit role.
type Author struct {
	Name string `msgpack:"name"`
	Role string `msgpack:"role,omitempty"`
}

// License is either an SPDX identifier or a custom name+url pair.
type License struct {
	SPDX string `msgpack:"spdx,omitempty"`
	Name string `msgpack:"name,omitempty"`
	URL  string `msgpack:"url,omitempty"`
}

// LayerMetadata carries the per-layer description and string-table
// override map declared by the authoring project.
type LayerMetadata struct {
	Description     string            `msgpack:"description,omitempty"`
	StringOverrides map[string]string `msgpack:"stringOverrides,omitempty"`
}

// Metadata is the mod's `_meta_/info.msgpack` payload, decoded with
// named (not positional) fields so the format tolerates additions.
type Metadata struct {
	Name        string                   `msgpack:"name"`
	DisplayName string                   `msgpack:"displayName"`
	Description string                   `msgpack:"description,omitempty"`
	Version     string                   `msgpack:"version"`
	Distributor string                   `msgpack:"distributor,omitempty"`
	Authors     []Author                 `msgpack:"authors,omitempty"`
	License     *License                 `msgpack:"license,omitempty"`
	Layers      map[string]LayerMetadata `msgpack:"layers,omitempty"`
}

// EncodeMetadata serializes m as MessagePack.
func EncodeMetadata(m Metadata) ([]byte, error) {
	b, err := msgpack.Marshal(m)
	if err != nil {
		return nil, newErr(errkind.Internal, "failed to encode metadata", err)
	}
	return b, nil
}

// DecodeMetadata deserializes MessagePack bytes into a Metadata.
func DecodeMetadata(b []byte) (Metadata, error) {
	var m Metadata
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return Metadata{}, newErr(errkind.Format, "failed to decode metadata", err)
	}
	return m, nil
}
