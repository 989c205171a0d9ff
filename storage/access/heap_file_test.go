package access

import (
	"testing"

	"heapstore/common"
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	testingpkg "heapstore/testing/testing_assert"
	"heapstore/testing/testing_util"
	"heapstore/types"
)

func TestCreateDestroyHeapFile(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(common.BufferPoolSize)

	testingpkg.Ok(t, CreateHeapFile(dm, bpm, "t1.heap"))

	// Scenario: creating an existing heap file fails and leaves it untouched.
	testingpkg.Equals(t, disk.ErrFileExists, CreateHeapFile(dm, bpm, "t1.heap"))

	h, err := NewHeapFile(dm, bpm, "t1.heap")
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, int32(0), h.RecCount())
	testingpkg.Equals(t, "t1.heap", h.FileName())

	// Scenario: a fresh heap file has one empty data page.
	testingpkg.Equals(t, int32(1), h.headerPage.PageCount())
	testingpkg.Equals(t, h.headerPage.FirstPage(), h.headerPage.LastPage())
	testingpkg.Equals(t, true, h.headerPage.FirstPage().IsValid())
	h.Close()

	testingpkg.Ok(t, DestroyHeapFile(dm, "t1.heap"))

	// Scenario: the name is free again after destroy.
	testingpkg.Ok(t, CreateHeapFile(dm, bpm, "t1.heap"))
}

func TestHeapFileInsertRoundTrip(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(common.BufferPoolSize)

	testingpkg.Ok(t, CreateHeapFile(dm, bpm, "t2.heap"))

	ifs, err := NewInsertFileScan(dm, bpm, "t2.heap")
	testingpkg.Ok(t, err)
	rid, err := ifs.InsertRecord([]byte("hello"))
	testingpkg.Ok(t, err)
	ifs.Close()

	// Scenario: the record survives close and reopen.
	h, err := NewHeapFile(dm, bpm, "t2.heap")
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, int32(1), h.RecCount())

	rec, err := h.GetRecord(rid)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []byte("hello"), rec.Data())
	testingpkg.Equals(t, uint32(5), rec.Size())

	// Scenario: bad record identifiers surface typed errors.
	_, err = h.GetRecord(page.RID{PageNo: types.PageID(-1), SlotNo: 0})
	testingpkg.Equals(t, ErrBadPageNo, err)
	_, err = h.GetRecord(page.RID{PageNo: rid.PageNo, SlotNo: 99})
	testingpkg.Equals(t, ErrInvalidSlot, err)

	h.Close()
}

// walkChain follows the page chain from firstPage and returns the
// number of pages, the last page seen and the live record total.
func walkChain(t *testing.T, h *HeapFile) (int32, types.PageID, int32) {
	t.Helper()
	pageCnt := int32(0)
	recCnt := int32(0)
	last := types.InvalidPageID

	pageNo := h.headerPage.FirstPage()
	for pageNo.IsValid() {
		pg, err := h.bufMgr.FetchPage(h.file, pageNo)
		testingpkg.Ok(t, err)
		dp := CastPageAsDataPage(pg)
		pageCnt++
		recCnt += int32(dp.RecordCount())
		last = pageNo
		next := dp.NextPage()
		testingpkg.Ok(t, h.bufMgr.UnpinPage(h.file, pageNo, false))
		pageNo = next
	}
	return pageCnt, last, recCnt
}

func TestHeapFilePageSpanningInsert(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(common.BufferPoolSize)

	testingpkg.Ok(t, CreateHeapFile(dm, bpm, "t3.heap"))

	// 100 records of 200 bytes span at least three pages.
	numRecords := 100
	ifs, err := NewInsertFileScan(dm, bpm, "t3.heap")
	testingpkg.Ok(t, err)

	rids := make([]page.RID, 0, numRecords)
	for i := 0; i < numRecords; i++ {
		rid, err := ifs.InsertRecord(testing_util.GenRecordBytes(uint32(i), 200))
		testingpkg.Ok(t, err)
		rids = append(rids, rid)
	}
	ifs.Close()

	h, err := NewHeapFile(dm, bpm, "t3.heap")
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, int32(numRecords), h.RecCount())
	testingpkg.Assert(t, h.headerPage.PageCount() >= 2, "expected the chain to span pages, got %d", h.headerPage.PageCount())

	// Scenario: header counters agree with a walk of the chain.
	pageCnt, last, recCnt := walkChain(t, h)
	testingpkg.Equals(t, h.headerPage.PageCount(), pageCnt)
	testingpkg.Equals(t, h.headerPage.LastPage(), last)
	testingpkg.Equals(t, h.RecCount(), recCnt)

	// Scenario: every record reads back byte-equal on the fresh handle.
	for i, rid := range rids {
		rec, err := h.GetRecord(rid)
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, testing_util.RecordFingerprint(testing_util.GenRecordBytes(uint32(i), 200)), testing_util.RecordFingerprint(rec.Data()))
	}
	h.Close()

	// Scenario: an unfiltered scan returns every record in insertion order.
	s, err := NewHeapFileScan(dm, bpm, "t3.heap")
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, s.StartScan(0, 0, types.Invalid, nil, EQ))
	for i := 0; i < numRecords; i++ {
		rid, err := s.ScanNext()
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, rids[i], rid)
	}
	_, err = s.ScanNext()
	testingpkg.Equals(t, ErrFileEOF, err)
	s.Close()
}

func TestHeapFileCloseReleasesPins(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := buffer.NewBufferPoolManager(common.BufferPoolSize)

	testingpkg.Ok(t, CreateHeapFile(dm, bpm, "t4.heap"))

	// Scenario: open handles pin the header and the first data page;
	// Close releases both, so a hundred open/close rounds never run the
	// pool out of frames; a pin leaked on every round would exhaust the
	// pool well before the last round.
	for i := 0; i < 100; i++ {
		h, err := NewHeapFile(dm, bpm, "t4.heap")
		testingpkg.Ok(t, err)
		h.Close()
	}
}
