// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"heapstore/common"
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/storage/record"
	"heapstore/types"
)

// HeapFile is an open handle on a heap file: a chain of slotted data
// pages reachable from the header page. The handle keeps the header
// pinned for its whole lifetime and at most one data page pinned as
// the "current" page.
type HeapFile struct {
	bufMgr       *buffer.BufferPoolManager
	diskMgr      disk.DiskManager
	file         disk.DBFile
	headerPageNo types.PageID
	headerPage   *HeaderPage
	hdrDirtyFlag bool
	curPageNo    types.PageID
	curPage      *DataPage
	curDirtyFlag bool
	curRec       page.RID
}

// CreateHeapFile creates the file and bootstraps it with a header page
// and one empty data page. A file that already exists fails with
// disk.ErrFileExists and is left untouched. A failure after partial
// construction surfaces the underlying error; the partially created
// file is not cleaned up.
func CreateHeapFile(diskMgr disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) error {
	if common.EnableDebug {
		common.ShPrintf(common.HEAP_OP_FUNC_CALL, "CreateHeapFile called. fileName:%v\n", fileName)
	}

	if err := diskMgr.CreateFile(fileName); err != nil {
		return err
	}

	file, err := diskMgr.OpenFile(fileName)
	if err != nil {
		return err
	}

	hdrPage, err := bufMgr.AllocPage(file)
	if err != nil {
		return err
	}
	hdrPageNo := hdrPage.ID()
	header := CastPageAsHeaderPage(hdrPage)
	header.Init(fileName)

	dataPage, err := bufMgr.AllocPage(file)
	if err != nil {
		bufMgr.UnpinPage(file, hdrPageNo, true)
		return err
	}
	dataPageNo := dataPage.ID()
	CastPageAsDataPage(dataPage).Init(dataPageNo)

	header.SetFirstPage(dataPageNo)
	header.SetLastPage(dataPageNo)
	header.SetPageCount(1)
	header.SetRecordCount(0)

	if err := bufMgr.UnpinPage(file, hdrPageNo, true); err != nil {
		bufMgr.UnpinPage(file, dataPageNo, true)
		return err
	}
	if err := bufMgr.UnpinPage(file, dataPageNo, true); err != nil {
		return err
	}
	if err := bufMgr.DropFile(file); err != nil {
		return err
	}
	return diskMgr.CloseFile(file)
}

// DestroyHeapFile removes the heap file from the device. Callers must
// ensure no handle is open on it.
func DestroyHeapFile(diskMgr disk.DiskManager, fileName string) error {
	if common.EnableDebug {
		common.ShPrintf(common.HEAP_OP_FUNC_CALL, "DestroyHeapFile called. fileName:%v\n", fileName)
	}
	return diskMgr.DestroyFile(fileName)
}

// NewHeapFile opens an existing heap file: it pins the header page for
// the lifetime of the handle and, when the chain is not empty, pins
// the first data page as the current page. On failure the handle owns
// no pins.
func NewHeapFile(diskMgr disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) (*HeapFile, error) {
	if common.EnableDebug {
		common.ShPrintf(common.HEAP_OP_FUNC_CALL, "NewHeapFile called. fileName:%v\n", fileName)
	}

	file, err := diskMgr.OpenFile(fileName)
	if err != nil {
		return nil, err
	}

	headerPageNo, err := file.FirstPage()
	if err != nil {
		diskMgr.CloseFile(file)
		return nil, err
	}

	hdrPage, err := bufMgr.FetchPage(file, headerPageNo)
	if err != nil {
		diskMgr.CloseFile(file)
		return nil, err
	}

	h := &HeapFile{
		bufMgr:       bufMgr,
		diskMgr:      diskMgr,
		file:         file,
		headerPageNo: headerPageNo,
		headerPage:   CastPageAsHeaderPage(hdrPage),
		hdrDirtyFlag: false,
		curPageNo:    types.InvalidPageID,
		curPage:      nil,
		curDirtyFlag: false,
		curRec:       page.NullRID,
	}

	firstPage := h.headerPage.FirstPage()
	if firstPage.IsValid() {
		curPage, err := bufMgr.FetchPage(file, firstPage)
		if err != nil {
			bufMgr.UnpinPage(file, headerPageNo, false)
			diskMgr.CloseFile(file)
			return nil, err
		}
		h.curPage = CastPageAsDataPage(curPage)
		h.curPageNo = firstPage
	}

	return h, nil
}

// Close releases the current data page and the header page, evicts the
// file's frames from the buffer pool and closes the file. Release
// failures are logged, not propagated; every release is still
// attempted.
func (h *HeapFile) Close() {
	if h.file == nil {
		return
	}

	if h.curPage != nil {
		if err := h.bufMgr.UnpinPage(h.file, h.curPageNo, h.curDirtyFlag); err != nil {
			common.ShPrintf(common.ERROR, "HeapFile::Close: unpin of data page failed: %v\n", err)
			if common.EnableDebug {
				common.RuntimeStack()
			}
		}
		h.curPage = nil
		h.curPageNo = types.InvalidPageID
		h.curDirtyFlag = false
	}

	if err := h.bufMgr.UnpinPage(h.file, h.headerPageNo, h.hdrDirtyFlag); err != nil {
		common.ShPrintf(common.ERROR, "HeapFile::Close: unpin of header page failed: %v\n", err)
		if common.EnableDebug {
			common.RuntimeStack()
		}
	}
	h.headerPage = nil

	if err := h.bufMgr.DropFile(h.file); err != nil {
		common.ShPrintf(common.ERROR, "HeapFile::Close: drop of buffer frames failed: %v\n", err)
	}
	if err := h.diskMgr.CloseFile(h.file); err != nil {
		common.ShPrintf(common.ERROR, "HeapFile::Close: close of file failed: %v\n", err)
	}
	h.file = nil
}

// FileName returns the name stored on the header page
func (h *HeapFile) FileName() string {
	return h.headerPage.FileName()
}

// RecCount returns the number of live records in the file. No I/O.
func (h *HeapFile) RecCount() int32 {
	return h.headerPage.RecordCount()
}

// GetRecord retrieves an arbitrary record from the file. If the record
// is not on the currently pinned page, the current page is unpinned
// and the required page is read in and pinned; sequential calls on one
// page hit the pinned page without I/O. The returned view stays valid
// while that page remains the current page.
func (h *HeapFile) GetRecord(rid page.RID) (*record.Record, error) {
	if common.EnableDebug {
		common.ShPrintf(common.HEAP_OP_FUNC_CALL, "HeapFile::GetRecord called. rid:%v\n", rid)
	}

	if rid.PageNo < 0 {
		return nil, ErrBadPageNo
	}

	if h.curPage == nil || rid.PageNo != h.curPageNo {
		if h.curPage != nil {
			if err := h.bufMgr.UnpinPage(h.file, h.curPageNo, h.curDirtyFlag); err != nil {
				return nil, err
			}
			h.curPage = nil
		}

		curPage, err := h.bufMgr.FetchPage(h.file, rid.PageNo)
		if err != nil {
			return nil, err
		}
		h.curPage = CastPageAsDataPage(curPage)
		h.curPageNo = rid.PageNo
		h.curDirtyFlag = false
	}

	rec, err := h.curPage.GetRecord(rid)
	if err != nil {
		return nil, err
	}

	h.curRec = rid
	return rec, nil
}
