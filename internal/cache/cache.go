// Package cache implements the bytecode cache described in
// SPEC_FULL.md §3.2: compiled chunks are keyed by a blake2b hash of
// their source text and stored on disk as CBOR, grounded on the
// teacher's content-addressed chunk format (vm/dist/chunk.go,
// vm/dist/wire.go) but adapted from a distribution protocol to a purely
// local compile cache.
package cache

import (
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/chazu/lumen/internal/bytecode"
	"github.com/chazu/lumen/internal/intern"
	"github.com/chazu/lumen/internal/value"
)

// cborEncMode matches the teacher's canonical CBOR encoding choice so
// that identical chunks always serialize to identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("cache: failed to create CBOR enc mode: " + err.Error())
	}
	cborEncMode = em
}

// Key is the content address of a cached chunk: the blake2b-256 hash of
// its source text.
type Key [32]byte

// Hash computes the cache key for source.
func Hash(source string) Key {
	return blake2b.Sum256([]byte(source))
}

// String renders the key as hex, used for the on-disk file name.
func (k Key) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, len(k)*2)
	for i, b := range k {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}

// wireChunk is the on-disk representation of a Chunk: Code and Lines
// round-trip directly, but Constants must be flattened because
// value.Value's fields are private and not CBOR-addressable.
type wireChunk struct {
	Code      []byte      `cbor:"1,keyasint"`
	Lines     []int       `cbor:"2,keyasint"`
	Constants []wireValue `cbor:"3,keyasint"`
}

type wireKind uint8

const (
	wireNil wireKind = iota
	wireBool
	wireNumber
	wireString
)

type wireValue struct {
	Kind   wireKind `cbor:"1,keyasint"`
	Bool   bool     `cbor:"2,keyasint,omitempty"`
	Number float64  `cbor:"3,keyasint,omitempty"`
	Str    string   `cbor:"4,keyasint,omitempty"`
}

// Store is a directory of CBOR-encoded chunks addressed by Key.
type Store struct {
	dir string
}

// Open returns a Store rooted at dir, creating it if necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cache: creating %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(k Key) string {
	return filepath.Join(s.dir, k.String()+".cbor")
}

// Lookup returns the cached chunk for key, re-interning its string
// constants into strings so identity holds for the caller's VM, and
// reports whether it was found.
func (s *Store) Lookup(key Key, strings *intern.Table) (*bytecode.Chunk, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	var w wireChunk
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	chunk := &bytecode.Chunk{
		Code:      w.Code,
		Lines:     w.Lines,
		Constants: make([]value.Value, len(w.Constants)),
	}
	for i, wv := range w.Constants {
		chunk.Constants[i] = wv.toValue(strings)
	}
	return chunk, true
}

// Store persists chunk under key, overwriting any existing entry.
func (s *Store) Store(key Key, chunk *bytecode.Chunk) error {
	w := wireChunk{
		Code:      chunk.Code,
		Lines:     chunk.Lines,
		Constants: make([]wireValue, len(chunk.Constants)),
	}
	for i, v := range chunk.Constants {
		w.Constants[i] = fromValue(v)
	}
	data, err := cborEncMode.Marshal(&w)
	if err != nil {
		return errors.Wrap(err, "cache: encoding chunk")
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return errors.Wrapf(err, "cache: writing %s", s.path(key))
	}
	return nil
}

func fromValue(v value.Value) wireValue {
	switch {
	case v.IsNil():
		return wireValue{Kind: wireNil}
	case v.IsBool():
		return wireValue{Kind: wireBool, Bool: v.AsBool()}
	case v.IsNumber():
		return wireValue{Kind: wireNumber, Number: v.AsNumber()}
	case v.IsString():
		return wireValue{Kind: wireString, Str: v.AsString()}
	default:
		return wireValue{Kind: wireNil}
	}
}

func (wv wireValue) toValue(strings *intern.Table) value.Value {
	switch wv.Kind {
	case wireBool:
		return value.Bool(wv.Bool)
	case wireNumber:
		return value.Number(wv.Number)
	case wireString:
		obj, _ := strings.Copy(wv.Str)
		return value.FromObj(obj)
	default:
		return value.Nil
	}
}
