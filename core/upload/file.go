package upload

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// File is a candidate upload. ContentType is the client-reported MIME type
// and may be empty when unknown.
type File interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

type localFile struct {
	path string
	size int64
	ct   string
}

// NewLocalFile wraps a file on disk. The MIME type is guessed from the
// extension and left empty when the extension is unknown.
func NewLocalFile(path string) (File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if fi.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}
	return &localFile{
		path: path,
		size: fi.Size(),
		ct:   mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

func (f *localFile) Name() string                 { return filepath.Base(f.path) }
func (f *localFile) Size() int64                  { return f.size }
func (f *localFile) ContentType() string          { return f.ct }
func (f *localFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type memFile struct {
	name string
	data []byte
	ct   string
}

// NewMemFile wraps an in-memory byte slice; handy for tests and generated
// content.
func NewMemFile(name string, data []byte, contentType string) File {
	return &memFile{name: name, data: data, ct: contentType}
}

func (f *memFile) Name() string        { return f.name }
func (f *memFile) Size() int64         { return int64(len(f.data)) }
func (f *memFile) ContentType() string { return f.ct }
func (f *memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
