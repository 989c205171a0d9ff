package disk

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dsnet/golib/memfile"
	"github.com/sasha-s/go-deadlock"

	"heapstore/common"
	"heapstore/types"
)

// VirtualDiskManagerImpl keeps every file in memory. Tests that spell
// out byte-level expectations use it to avoid temp files entirely.
type VirtualDiskManagerImpl struct {
	files      map[string]*virtualFile
	fileNames  mapset.Set[string]
	nextFileID uint32
	mutex      deadlock.Mutex
}

func NewVirtualDiskManagerImpl() DiskManager {
	return &VirtualDiskManagerImpl{
		files:     make(map[string]*virtualFile),
		fileNames: mapset.NewThreadUnsafeSet[string](),
	}
}

func (d *VirtualDiskManagerImpl) CreateFile(name string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.fileNames.Contains(name) {
		return ErrFileExists
	}
	d.fileNames.Add(name)
	d.files[name] = &virtualFile{
		name: name,
		data: memfile.New(make([]byte, 0)),
	}
	return nil
}

func (d *VirtualDiskManagerImpl) DestroyFile(name string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.fileNames.Contains(name) {
		return ErrFileNotFound
	}
	d.fileNames.Remove(name)
	delete(d.files, name)
	return nil
}

func (d *VirtualDiskManagerImpl) OpenFile(name string) (DBFile, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	vf, ok := d.files[name]
	if !ok {
		return nil, ErrFileNotFound
	}
	d.nextFileID++
	vf.id = d.nextFileID
	vf.closed = false
	return vf, nil
}

func (d *VirtualDiskManagerImpl) CloseFile(f DBFile) error {
	vf, ok := f.(*virtualFile)
	if !ok || vf.closed {
		return ErrFileClosed
	}
	vf.closed = true
	return nil
}

func (d *VirtualDiskManagerImpl) ShutDown() {
	// nothing to release
}

type virtualFile struct {
	id     uint32
	name   string
	data   *memfile.File
	size   int64
	closed bool
	mutex  deadlock.Mutex
}

func (f *virtualFile) ID() uint32 {
	return f.id
}

func (f *virtualFile) Name() string {
	return f.name
}

func (f *virtualFile) ReadPage(pageNo types.PageID, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return ErrFileClosed
	}

	offset := int64(pageNo) * common.PageSize
	if offset+common.PageSize > f.size {
		return ErrPastEndOfFile
	}
	_, err := f.data.ReadAt(data[:common.PageSize], offset)
	return err
}

func (f *virtualFile) WritePage(pageNo types.PageID, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return ErrFileClosed
	}

	offset := int64(pageNo) * common.PageSize
	if _, err := f.data.WriteAt(data[:common.PageSize], offset); err != nil {
		return err
	}
	if offset+common.PageSize > f.size {
		f.size = offset + common.PageSize
	}
	return nil
}

func (f *virtualFile) AllocatePage() (types.PageID, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return types.InvalidPageID, ErrFileClosed
	}

	pageNo := types.PageID(f.size / common.PageSize)
	zero := make([]byte, common.PageSize)
	if _, err := f.data.WriteAt(zero, f.size); err != nil {
		return types.InvalidPageID, err
	}
	f.size += common.PageSize
	return pageNo, nil
}

func (f *virtualFile) FirstPage() (types.PageID, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.size == 0 {
		return types.InvalidPageID, ErrEmptyFile
	}
	return types.PageID(0), nil
}

func (f *virtualFile) NumPages() int64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.size / common.PageSize
}
