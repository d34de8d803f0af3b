package kjsonquery

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/FeiBaoHuYu/KJsonQuery/scan"
)

// Source owns the memory-mapped read-only view of a JSON file.
//
// A Source is not safe for concurrent use: it hands out a Scanner
// positioned at offset 0 on every call to Tokenizer, but does not itself
// serialize access to the underlying file descriptor or mapping. Callers
// (in practice, a single *Handle) must serialize their own use.
type Source struct {
	path string
	file *os.File
	data mmap.MMap
}

// Open maps path read-only into memory. It reports ErrNotFound if the file
// does not exist, or ErrIO for any other failure to open or map it.
func Open(path string) (*Source, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newError(KindNotFound, "open", path, err)
		}
		return nil, newError(KindIOError, "open", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, newError(KindIOError, "open", path, err)
	}
	if fi.Size() == 0 {
		// mmap.Map rejects a zero-length mapping; a nil data slice gives
		// the scanner nothing to read, so it reports io.EOF on its first
		// Next, which is the right behavior for an empty JSON file anyway.
		return &Source{path: path, file: f, data: nil}, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, newError(KindIOError, "open", path, err)
	}
	return &Source{path: path, file: f, data: data}, nil
}

// Path returns the path this Source was opened from, exactly as it was
// passed to Open.
func (s *Source) Path() string { return s.path }

// Tokenizer returns a Scanner positioned at offset 0 of the mapped region.
// Every call returns a fresh Scanner; the mapped bytes are shared, never
// copied.
func (s *Source) Tokenizer() *scan.Scanner { return scan.NewScanner(s.data) }

// Release unmaps the region and closes the underlying file. It is safe to
// call more than once.
func (s *Source) Release() error {
	var mapErr, fileErr error
	if s.data != nil {
		mapErr = s.data.Unmap()
		s.data = nil
	}
	if s.file != nil {
		fileErr = s.file.Close()
		s.file = nil
	}
	if mapErr != nil {
		return newError(KindIOError, "release", s.path, mapErr)
	}
	if fileErr != nil {
		return newError(KindIOError, "release", s.path, fileErr)
	}
	return nil
}
