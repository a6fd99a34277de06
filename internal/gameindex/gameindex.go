// Package gameindex builds an in-memory index of a League of Legends
// installation's WAD files: a filename lookup, a chunk-hash-to-owning-WAD
// lookup, and a fingerprint of the install used to decide whether a
// previously built overlay can be reused.
package gameindex

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/wad"
)

// FinalSubpath is the directory under a game installation root that
// holds every shippable WAD file.
const FinalSubpath = "DATA/FINAL"

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

// AmbiguousWad is returned by FindWad when more than one file shares
// the requested lowercase name.
type AmbiguousWad struct{ Count int }

func (e *AmbiguousWad) Error() string { return "ambiguous WAD match" }

// WadNotFound is returned by FindWad when no file matches.
type WadNotFound struct{ Name string }

func (e *WadNotFound) Error() string { return "WAD not found: " + e.Name }

// Index is a built game index: every WAD under DATA/FINAL, keyed both
// by filename and by the chunk path hashes it contains, plus a
// fingerprint over the whole traversal.
type Index struct {
	gameDir         string
	wadByFilename   map[string][]string // lowercase name -> absolute paths
	hashToWads      map[uint64][]string // chunk path hash -> relative paths from gameDir
	gameFingerprint uint64
}

// GameDir returns the root directory this index was built from.
func (idx *Index) GameDir() string { return idx.gameDir }

// GameFingerprint returns the xxHash3 fingerprint of the installation
// state this index observed.
func (idx *Index) GameFingerprint() uint64 { return idx.gameFingerprint }

// Build walks gameDir/DATA/FINAL recursively, mounting every
// .wad.client file found. WADs that fail to mount are logged and
// skipped rather than failing the whole build.
func Build(gameDir string) (*Index, error) {
	root := filepath.Join(gameDir, filepath.FromSlash(FinalSubpath))
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, newErr(errkind.Validation, "InvalidGameDir: "+root+" does not exist", err)
	}

	type fileRecord struct {
		abs     string
		rel     string
		size    int64
		modTime int64
	}
	var files []fileRecord

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".wad.client") {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(gameDir, p)
		if err != nil {
			rel = p
		}
		files = append(files, fileRecord{
			abs:     p,
			rel:     filepath.ToSlash(rel),
			size:    fi.Size(),
			modTime: fi.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, newErr(errkind.IO, "failed to walk "+root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].abs < files[j].abs })

	wadByFilename := map[string][]string{}
	hashToWads := map[uint64][]string{}
	var fpInput []byte

	for _, f := range files {
		lower := strings.ToLower(filepath.Base(f.abs))
		wadByFilename[lower] = append(wadByFilename[lower], f.abs)

		fpInput = append(fpInput, []byte(f.rel)...)
		var sizeBuf, mtimeBuf [8]byte
		binary.LittleEndian.PutUint64(sizeBuf[:], uint64(f.size))
		binary.LittleEndian.PutUint64(mtimeBuf[:], uint64(f.modTime))
		fpInput = append(fpInput, sizeBuf[:]...)
		fpInput = append(fpInput, mtimeBuf[:]...)

		func() {
			file, err := os.Open(f.abs)
			if err != nil {
				corelog.WithField("wad", f.abs).WithField("error", err).Warn("failed to open WAD during game index build")
				return
			}
			defer file.Close()

			reader, err := wad.Mount(file)
			if err != nil {
				corelog.WithField("wad", f.abs).WithField("error", err).Warn("failed to mount WAD during game index build, skipping")
				return
			}
			for hash := range reader.Chunks() {
				hashToWads[hash] = append(hashToWads[hash], f.rel)
			}
		}()
	}

	return &Index{
		gameDir:         gameDir,
		wadByFilename:   wadByFilename,
		hashToWads:      hashToWads,
		gameFingerprint: xxh3.Hash(fpInput),
	}, nil
}

// FindWad returns the sole absolute path matching filename
// (case-insensitive), or an error if zero or more than one match.
func (idx *Index) FindWad(filename string) (string, error) {
	matches := idx.wadByFilename[strings.ToLower(filename)]
	switch len(matches) {
	case 0:
		return "", &WadNotFound{Name: filename}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousWad{Count: len(matches)}
	}
}

// FindWadsWithHash returns every WAD (relative path from gameDir) that
// contains a chunk with the given path hash.
func (idx *Index) FindWadsWithHash(hash uint64) []string {
	return idx.hashToWads[hash]
}
