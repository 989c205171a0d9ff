// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"heapstore/common"
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/types"
)

// InsertFileScan appends records to a heap file, extending the page
// chain when the tail page overflows. It never carries a filter.
type InsertFileScan struct {
	*HeapFile
}

func NewInsertFileScan(diskMgr disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) (*InsertFileScan, error) {
	h, err := NewHeapFile(diskMgr, bufMgr, fileName)
	if err != nil {
		return nil, err
	}

	// start with no current page so the first insert positions on the
	// tail of the chain, never on an interior page with freed space
	if h.curPage != nil {
		if err := bufMgr.UnpinPage(h.file, h.curPageNo, false); err != nil {
			h.Close()
			return nil, err
		}
		h.curPage = nil
		h.curPageNo = types.InvalidPageID
	}

	return &InsertFileScan{HeapFile: h}, nil
}

// Close unpins the current page as dirty (inserts dirtied it) and
// closes the underlying handle. Unpin failures are logged.
func (s *InsertFileScan) Close() {
	if s.curPage != nil {
		if err := s.bufMgr.UnpinPage(s.file, s.curPageNo, true); err != nil {
			common.ShPrintf(common.ERROR, "InsertFileScan::Close: unpin of data page failed: %v\n", err)
		}
		s.curPage = nil
		s.curPageNo = types.InvalidPageID
		s.curDirtyFlag = false
	}
	s.HeapFile.Close()
}

// InsertRecord appends the record and returns its identifier. Only the
// tail page is ever appended to; free space in interior pages is not
// reused.
func (s *InsertFileScan) InsertRecord(data []byte) (page.RID, error) {
	if common.EnableDebug {
		common.ShPrintf(common.HEAP_OP_FUNC_CALL, "InsertFileScan::InsertRecord called. len:%v\n", len(data))
	}

	// with no current page, start from the tail of the chain
	if s.curPage == nil {
		if !s.headerPage.LastPage().IsValid() {
			// empty chain: allocate the first data page
			newPage, err := s.bufMgr.AllocPage(s.file)
			if err != nil {
				return page.NullRID, err
			}
			newPageNo := newPage.ID()
			s.curPage = CastPageAsDataPage(newPage)
			s.curPage.Init(newPageNo)
			s.curPageNo = newPageNo
			s.curDirtyFlag = true

			s.headerPage.SetFirstPage(newPageNo)
			s.headerPage.SetLastPage(newPageNo)
			s.headerPage.SetPageCount(1)
			s.hdrDirtyFlag = true
		} else {
			lastPage := s.headerPage.LastPage()
			curPage, err := s.bufMgr.FetchPage(s.file, lastPage)
			if err != nil {
				return page.NullRID, err
			}
			s.curPage = CastPageAsDataPage(curPage)
			s.curPageNo = lastPage
			s.curDirtyFlag = false
		}
	}

	rid, err := s.curPage.InsertRecord(data)
	if err == nil {
		s.headerPage.SetRecordCount(s.headerPage.RecordCount() + 1)
		s.hdrDirtyFlag = true
		s.curDirtyFlag = true
		s.curRec = rid
		return rid, nil
	}

	if err != ErrNoSpace {
		return page.NullRID, err
	}

	// the tail page is full: extend the chain
	newPage, err := s.bufMgr.AllocPage(s.file)
	if err != nil {
		return page.NullRID, err
	}
	newPageNo := newPage.ID()
	newDataPage := CastPageAsDataPage(newPage)
	newDataPage.Init(newPageNo)

	// the link write must be covered by the unpin of the old tail
	s.curPage.SetNextPage(newPageNo)
	s.curDirtyFlag = true

	s.headerPage.SetLastPage(newPageNo)
	s.headerPage.SetPageCount(s.headerPage.PageCount() + 1)
	s.hdrDirtyFlag = true

	// make the new tail current before releasing the old one, so a
	// failed unpin never strands the new page's pin
	oldPageNo := s.curPageNo
	oldDirtyFlag := s.curDirtyFlag
	s.curPage = newDataPage
	s.curPageNo = newPageNo
	s.curDirtyFlag = true

	if err := s.bufMgr.UnpinPage(s.file, oldPageNo, oldDirtyFlag); err != nil {
		return page.NullRID, err
	}

	rid, err = s.curPage.InsertRecord(data)
	if err != nil {
		return page.NullRID, err
	}

	s.headerPage.SetRecordCount(s.headerPage.RecordCount() + 1)
	s.hdrDirtyFlag = true
	s.curRec = rid
	return rid, nil
}
