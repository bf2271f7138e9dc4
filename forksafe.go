// Fork-safe file handle.
//
// A reader records the pid it was opened under; every disk access checks
// the current pid against it, and on mismatch (the handle crossed a fork
// boundary) transparently reopens the file by path before the access
// proceeds. Data-loader workers that fork after opening a dataset get a
// working handle without any explicit re-initialisation.
package fdd

import (
	"os"
	"sync"
)

// forkSafeFile guards a file handle against silent use-after-fork. A
// read Stream holds one of these as its blobReaderAt.
type forkSafeFile struct {
	mu   sync.Mutex
	path string
	f    *os.File
	pid  int
}

func newForkSafeFile(path string, f *os.File) *forkSafeFile {
	return &forkSafeFile{path: path, f: f, pid: os.Getpid()}
}

// ensure reopens the underlying file if the process identity has changed
// since it was last (re)opened, then returns the current handle.
func (fs *forkSafeFile) ensure() (*os.File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if os.Getpid() == fs.pid {
		return fs.f, nil
	}

	f, err := os.Open(fs.path)
	if err != nil {
		return nil, err
	}
	if fs.f != nil {
		fs.f.Close()
	}
	fs.f = f
	fs.pid = os.Getpid()
	return fs.f, nil
}

// ReadAt satisfies blobReaderAt, reacquiring the handle across a fork
// boundary before delegating.
func (fs *forkSafeFile) ReadAt(p []byte, off int64) (int, error) {
	f, err := fs.ensure()
	if err != nil {
		return 0, err
	}
	return f.ReadAt(p, off)
}

// Close releases the current handle, at Reader.Close. A second call is a
// no-op.
func (fs *forkSafeFile) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.f == nil {
		return nil
	}
	err := fs.f.Close()
	fs.f = nil
	return err
}
