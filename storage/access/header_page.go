package access

import (
	"bytes"
	"unsafe"

	"heapstore/common"
	"heapstore/storage/page"
	"heapstore/types"
)

const offsetFirstPage = uint32(common.FileNameSize)
const offsetLastPage = uint32(common.FileNameSize + 4)
const offsetPageCount = uint32(common.FileNameSize + 8)
const offsetRecordCount = uint32(common.FileNameSize + 12)

// HeaderPage is the first physical page of a heap file. It carries the
// persistent metadata of the page chain:
//
//	-----------------------------------------------------------------------
//	| FileName (64, null-terminated) | FirstPage (4) | LastPage (4) |
//	| PageCnt (4) | RecCnt (4) |
//	-----------------------------------------------------------------------
//
// FirstPage and LastPage are InvalidPageID iff the file has no data
// pages. The header page itself is not counted in PageCnt.
type HeaderPage struct {
	page.Page
}

// CastPageAsHeaderPage casts the abstract Page struct into HeaderPage
func CastPageAsHeaderPage(page *page.Page) *HeaderPage {
	if page == nil {
		return nil
	}
	return (*HeaderPage)(unsafe.Pointer(page))
}

// Init prepares a freshly allocated header page for a file with an
// empty chain.
func (hp *HeaderPage) Init(fileName string) {
	hp.SetFileName(fileName)
	hp.SetFirstPage(types.InvalidPageID)
	hp.SetLastPage(types.InvalidPageID)
	hp.SetPageCount(0)
	hp.SetRecordCount(0)
}

// SetFileName stores the name null-terminated; names longer than the
// field are truncated.
func (hp *HeaderPage) SetFileName(name string) {
	field := make([]byte, common.FileNameSize)
	copy(field[:common.FileNameSize-1], name)
	hp.Copy(0, field)
}

func (hp *HeaderPage) FileName() string {
	field := hp.Data()[:common.FileNameSize]
	end := bytes.IndexByte(field, 0)
	if end < 0 {
		end = common.FileNameSize
	}
	return string(field[:end])
}

func (hp *HeaderPage) SetFirstPage(pageNo types.PageID) {
	hp.Copy(offsetFirstPage, pageNo.Serialize())
}

func (hp *HeaderPage) FirstPage() types.PageID {
	return types.NewPageIDFromBytes(hp.Data()[offsetFirstPage:])
}

func (hp *HeaderPage) SetLastPage(pageNo types.PageID) {
	hp.Copy(offsetLastPage, pageNo.Serialize())
}

func (hp *HeaderPage) LastPage() types.PageID {
	return types.NewPageIDFromBytes(hp.Data()[offsetLastPage:])
}

func (hp *HeaderPage) SetPageCount(count int32) {
	hp.Copy(offsetPageCount, types.Int32(count).Serialize())
}

func (hp *HeaderPage) PageCount() int32 {
	return int32(types.NewInt32FromBytes(hp.Data()[offsetPageCount:]))
}

func (hp *HeaderPage) SetRecordCount(count int32) {
	hp.Copy(offsetRecordCount, types.Int32(count).Serialize())
}

func (hp *HeaderPage) RecordCount() int32 {
	return int32(types.NewInt32FromBytes(hp.Data()[offsetRecordCount:]))
}
