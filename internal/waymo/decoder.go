package waymo

import (
	"fmt"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decoder turns one container payload into a Frame.
type Decoder interface {
	Decode(payload []byte) (*Frame, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(payload []byte) (*Frame, error)

// Decode calls f(payload).
func (f DecoderFunc) Decode(payload []byte) (*Frame, error) {
	return f(payload)
}

// JSONDecoder decodes payloads holding a JSON-encoded Frame, as exported by
// the upstream dataset tooling.
type JSONDecoder struct{}

// Decode implements Decoder.
func (JSONDecoder) Decode(payload []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return &f, nil
}

// EncodeJSON is the inverse of JSONDecoder.Decode.
func EncodeJSON(f *Frame) ([]byte, error) {
	return json.Marshal(f)
}

// ListSources returns the container files in dir in sorted lexical order.
// The position of a path in the result is its file index.
func ListSources(fsys fsutil.FileSystem, dir string) ([]string, error) {
	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory: %s is not a directory", dir)
	}
	paths, err := fsys.Glob(filepath.Join(dir, "*"+FileExtension))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
