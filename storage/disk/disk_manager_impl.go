// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"io"
	"os"

	"github.com/sasha-s/go-deadlock"

	"heapstore/common"
	"heapstore/types"
)

// DiskManagerImpl is the os.File implementation of DiskManager
type DiskManagerImpl struct {
	nextFileID uint32
	mutex      deadlock.Mutex
}

// NewDiskManagerImpl returns a DiskManager instance backed by the
// local filesystem
func NewDiskManagerImpl() DiskManager {
	return &DiskManagerImpl{}
}

// CreateFile creates an empty file. The existence probe is explicit;
// a file that is already present fails with ErrFileExists.
func (d *DiskManagerImpl) CreateFile(name string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, err := os.Stat(name); err == nil {
		return ErrFileExists
	}

	file, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		if os.IsExist(err) {
			return ErrFileExists
		}
		return err
	}
	return file.Close()
}

// DestroyFile removes the file from the device. Callers must ensure
// no handle is open on it.
func (d *DiskManagerImpl) DestroyFile(name string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	err := os.Remove(name)
	if os.IsNotExist(err) {
		return ErrFileNotFound
	}
	return err
}

// OpenFile opens an existing file for page I/O
func (d *DiskManagerImpl) OpenFile(name string) (DBFile, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	file, err := os.OpenFile(name, os.O_RDWR, 0666)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	d.nextFileID++
	return &diskFile{
		id:   d.nextFileID,
		name: name,
		file: file,
		size: fileInfo.Size(),
	}, nil
}

// CloseFile closes an open file handle
func (d *DiskManagerImpl) CloseFile(f DBFile) error {
	df, ok := f.(*diskFile)
	if !ok || df.file == nil {
		return ErrFileClosed
	}
	err := df.file.Close()
	df.file = nil
	return err
}

func (d *DiskManagerImpl) ShutDown() {
	// open handles are closed through CloseFile
}

// diskFile is one open os.File on the device
type diskFile struct {
	id    uint32
	name  string
	file  *os.File
	size  int64
	mutex deadlock.Mutex
}

func (f *diskFile) ID() uint32 {
	return f.id
}

func (f *diskFile) Name() string {
	return f.name
}

// ReadPage reads a page from the file into data
func (f *diskFile) ReadPage(pageNo types.PageID, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil {
		return ErrFileClosed
	}

	offset := int64(pageNo) * common.PageSize
	if offset+common.PageSize > f.size {
		return ErrPastEndOfFile
	}

	if _, err := f.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(f.file, data[:common.PageSize]); err != nil {
		return err
	}
	return nil
}

// WritePage writes a page to the file
func (f *diskFile) WritePage(pageNo types.PageID, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil {
		return ErrFileClosed
	}

	offset := int64(pageNo) * common.PageSize
	if _, err := f.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	bytesWritten, err := f.file.Write(data[:common.PageSize])
	if err != nil {
		return err
	}
	if bytesWritten != common.PageSize {
		return errShortWrite
	}

	if offset+common.PageSize > f.size {
		f.size = offset + common.PageSize
	}
	return f.file.Sync()
}

// AllocatePage extends the file by one zeroed page and returns its
// page number
func (f *diskFile) AllocatePage() (types.PageID, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.file == nil {
		return types.InvalidPageID, ErrFileClosed
	}

	pageNo := types.PageID(f.size / common.PageSize)
	zero := make([]byte, common.PageSize)
	if _, err := f.file.Seek(f.size, io.SeekStart); err != nil {
		return types.InvalidPageID, err
	}
	if _, err := f.file.Write(zero); err != nil {
		return types.InvalidPageID, err
	}
	f.size += common.PageSize
	return pageNo, nil
}

// FirstPage returns the page number of the first physically allocated
// page. By construction of the heap layer this is the header page.
func (f *diskFile) FirstPage() (types.PageID, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.size == 0 {
		return types.InvalidPageID, ErrEmptyFile
	}
	return types.PageID(0), nil
}

func (f *diskFile) NumPages() int64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.size / common.PageSize
}
