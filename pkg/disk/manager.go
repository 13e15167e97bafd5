// Package disk implements the disk manager contract (C1) and the disk
// scheduler (C2): the lowest layer of the storage core, responsible for
// turning a page id into bytes read from or written to a flat file.
package disk

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"pagekit/pkg/config"

	"github.com/ncw/directio"
)

// PageID identifies a page within a page file. Valid ids are non-negative
// and allocated monotonically; NoPage marks the absence of a page.
type PageID int32

// NoPage is the PageID used when there is no page to reference.
const NoPage PageID = -1

// PageSize is the size in bytes of every page this package moves.
const PageSize = config.PageSize

// Manager is the disk manager contract consumed by the Scheduler: blocking,
// synchronous reads and writes of whole pages, plus an advisory hint that a
// page id has been freed and may be reused.
type Manager interface {
	ReadPage(pageID PageID, buf []byte) error
	WritePage(pageID PageID, buf []byte) error
	DeallocatePage(pageID PageID)
	Close() error
}

// FileManager is a Manager backed by a single flat file opened with direct,
// page-aligned I/O, grounded on the teacher's pager.Open/fillPageFromDisk.
type FileManager struct {
	mu   sync.Mutex
	file *os.File
}

// OpenFile opens (creating if necessary) the page file at path.
func OpenFile(path string) (*FileManager, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return nil, err
		}
	}
	file, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	return &FileManager{file: file}, nil
}

// ReadPage fills buf with the contents of the given page. Reading a page
// number beyond the current end of file yields a zero-filled buffer rather
// than an error - a page that was allocated but never written reads back
// as zeros, exactly as if it had been written once with a zeroed buffer.
func (m *FileManager) ReadPage(pageID PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.file.Seek(int64(pageID)*PageSize, io.SeekStart); err != nil {
		return err
	}
	n, err := m.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	for ; n < len(buf); n++ {
		buf[n] = 0
	}
	return nil
}

// WritePage persists buf as the contents of the given page, blocking until
// the write completes.
func (m *FileManager) WritePage(pageID PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.file.Seek(int64(pageID)*PageSize, io.SeekStart); err != nil {
		return err
	}
	_, err := m.file.Write(buf)
	return err
}

// DeallocatePage is advisory; the flat-file layout never reclaims space.
func (m *FileManager) DeallocatePage(PageID) {}

// Close closes the backing file. It does not call Sync first.
func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return errors.New("disk: file manager already closed")
	}
	err := m.file.Close()
	m.file = nil
	return err
}
