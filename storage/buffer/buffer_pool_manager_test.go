package buffer

import (
	"crypto/rand"
	"testing"

	"heapstore/common"
	"heapstore/storage/disk"
	testingpkg "heapstore/testing/testing_assert"
	"heapstore/types"
)

func TestBinaryData(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	testingpkg.Ok(t, dm.CreateFile("t.heap"))
	f, err := dm.OpenFile("t.heap")
	testingpkg.Ok(t, err)
	defer dm.CloseFile(f)

	bpm := NewBufferPoolManager(poolSize)

	// Scenario: The buffer pool is empty. We should be able to allocate a new page.
	page0, err := bpm.AllocPage(f)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, types.PageID(0), page0.ID())

	// Generate random binary data
	randomBinaryData := make([]byte, common.PageSize)
	rand.Read(randomBinaryData)

	// Insert terminal characters both in the middle and at end
	randomBinaryData[common.PageSize/2] = '0'
	randomBinaryData[common.PageSize-1] = '0'

	var fixedRandomBinaryData [common.PageSize]byte
	copy(fixedRandomBinaryData[:], randomBinaryData[:common.PageSize])

	// Scenario: Once we have a page, we should be able to read and write content.
	page0.Copy(0, randomBinaryData)
	testingpkg.Equals(t, fixedRandomBinaryData, *page0.Data())

	// Scenario: We should be able to allocate new pages until we fill up the buffer pool.
	for i := uint32(1); i < poolSize; i++ {
		p, err := bpm.AllocPage(f)
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, types.PageID(i), p.ID())
	}

	// Scenario: Once the buffer pool is full, we should not be able to allocate any new pages.
	for i := poolSize; i < poolSize*2; i++ {
		_, err := bpm.AllocPage(f)
		testingpkg.Equals(t, ErrNoVictimFrame, err)
	}

	// Scenario: After unpinning pages {0, 1, 2, 3, 4}, allocating and releasing
	// another 4 pages reuses their frames, so page 0 is evicted from the pool.
	for i := 0; i < 5; i++ {
		testingpkg.Ok(t, bpm.UnpinPage(f, types.PageID(i), true))
		testingpkg.Ok(t, bpm.FlushPage(f, types.PageID(i)))
	}
	for i := 0; i < 4; i++ {
		p, err := bpm.AllocPage(f)
		testingpkg.Ok(t, err)
		testingpkg.Ok(t, bpm.UnpinPage(f, p.ID(), false))
	}

	// Scenario: We should be able to fetch the data we wrote a while ago
	// back from the file.
	page0, err = bpm.FetchPage(f, types.PageID(0))
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, fixedRandomBinaryData, *page0.Data())
	testingpkg.Ok(t, bpm.UnpinPage(f, types.PageID(0), true))
}

func TestMultipleFiles(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	testingpkg.Ok(t, dm.CreateFile("a.heap"))
	testingpkg.Ok(t, dm.CreateFile("b.heap"))
	fa, err := dm.OpenFile("a.heap")
	testingpkg.Ok(t, err)
	fb, err := dm.OpenFile("b.heap")
	testingpkg.Ok(t, err)
	defer dm.CloseFile(fa)
	defer dm.CloseFile(fb)

	bpm := NewBufferPoolManager(common.BufferPoolSize)

	// Scenario: page 0 of two different files lives in two different frames.
	pa, err := bpm.AllocPage(fa)
	testingpkg.Ok(t, err)
	pb, err := bpm.AllocPage(fb)
	testingpkg.Ok(t, err)
	pa.Copy(0, []byte("file a"))
	pb.Copy(0, []byte("file b"))

	testingpkg.Ok(t, bpm.UnpinPage(fa, pa.ID(), true))
	testingpkg.Ok(t, bpm.UnpinPage(fb, pb.ID(), true))
	testingpkg.Ok(t, bpm.FlushAllPages())

	buffer := make([]byte, common.PageSize)
	testingpkg.Ok(t, fa.ReadPage(types.PageID(0), buffer))
	testingpkg.Equals(t, []byte("file a"), buffer[:6])
	testingpkg.Ok(t, fb.ReadPage(types.PageID(0), buffer))
	testingpkg.Equals(t, []byte("file b"), buffer[:6])
}

func TestDropFile(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	testingpkg.Ok(t, dm.CreateFile("t.heap"))
	f, err := dm.OpenFile("t.heap")
	testingpkg.Ok(t, err)
	defer dm.CloseFile(f)

	bpm := NewBufferPoolManager(common.BufferPoolSize)

	p, err := bpm.AllocPage(f)
	testingpkg.Ok(t, err)
	p.Copy(0, []byte("persisted"))

	// Scenario: a pinned page blocks DropFile.
	testingpkg.Equals(t, ErrPagePinned, bpm.DropFile(f))

	testingpkg.Ok(t, bpm.UnpinPage(f, p.ID(), true))
	testingpkg.Ok(t, bpm.DropFile(f))

	// Scenario: the dirty page was flushed on drop and is gone from the pool.
	buffer := make([]byte, common.PageSize)
	testingpkg.Ok(t, f.ReadPage(p.ID(), buffer))
	testingpkg.Equals(t, []byte("persisted"), buffer[:9])
	testingpkg.Equals(t, ErrPageNotFound, bpm.UnpinPage(f, p.ID(), false))
}
