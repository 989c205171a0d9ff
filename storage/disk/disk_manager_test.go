package disk

import (
	"testing"

	"heapstore/common"
	testingpkg "heapstore/testing/testing_assert"
	"heapstore/types"
)

func TestCreateDestroyFile(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	testingpkg.Ok(t, dm.CreateFile("t.heap"))

	// Scenario: creating the same file again must fail without touching it.
	testingpkg.Equals(t, ErrFileExists, dm.CreateFile("t.heap"))

	testingpkg.Ok(t, dm.DestroyFile("t.heap"))
	testingpkg.Equals(t, ErrFileNotFound, dm.DestroyFile("t.heap"))

	// Scenario: once destroyed, the name can be created again.
	testingpkg.Ok(t, dm.CreateFile("t.heap"))
}

func TestReadWritePage(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	testingpkg.Ok(t, dm.CreateFile("t.heap"))
	f, err := dm.OpenFile("t.heap")
	testingpkg.Ok(t, err)
	defer dm.CloseFile(f)

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)
	copy(data, "A test string.")

	// Scenario: a fresh file has no pages; reads past the end must fail.
	testingpkg.Equals(t, ErrPastEndOfFile, f.ReadPage(0, buffer))
	_, err = f.FirstPage()
	testingpkg.Equals(t, ErrEmptyFile, err)

	pageNo, err := f.AllocatePage()
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, types.PageID(0), pageNo)
	testingpkg.Equals(t, int64(1), f.NumPages())

	first, err := f.FirstPage()
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, types.PageID(0), first)

	testingpkg.Ok(t, f.WritePage(pageNo, data))
	testingpkg.Ok(t, f.ReadPage(pageNo, buffer))
	testingpkg.Equals(t, data, buffer)

	// Scenario: a second allocated page comes back zeroed.
	pageNo, err = f.AllocatePage()
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, types.PageID(1), pageNo)
	testingpkg.Ok(t, f.ReadPage(pageNo, buffer))
	testingpkg.Equals(t, make([]byte, common.PageSize), buffer)
}

func TestVirtualDiskManager(t *testing.T) {
	dm := NewVirtualDiskManagerImpl()
	defer dm.ShutDown()

	testingpkg.Ok(t, dm.CreateFile("v.heap"))
	testingpkg.Equals(t, ErrFileExists, dm.CreateFile("v.heap"))

	f, err := dm.OpenFile("v.heap")
	testingpkg.Ok(t, err)

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)
	copy(data, "Another test string.")

	pageNo, err := f.AllocatePage()
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, f.WritePage(pageNo, data))
	testingpkg.Ok(t, f.ReadPage(pageNo, buffer))
	testingpkg.Equals(t, data, buffer)

	testingpkg.Ok(t, dm.CloseFile(f))
	testingpkg.Equals(t, ErrFileClosed, f.WritePage(pageNo, data))

	// Scenario: the file's contents survive close and reopen.
	f, err = dm.OpenFile("v.heap")
	testingpkg.Ok(t, err)
	memset(buffer, 0)
	testingpkg.Ok(t, f.ReadPage(pageNo, buffer))
	testingpkg.Equals(t, data, buffer)

	testingpkg.Ok(t, dm.CloseFile(f))
	testingpkg.Ok(t, dm.DestroyFile("v.heap"))
	_, err = dm.OpenFile("v.heap")
	testingpkg.Equals(t, ErrFileNotFound, err)
}

func memset(buffer []byte, value byte) {
	for i := range buffer {
		buffer[i] = value
	}
}
