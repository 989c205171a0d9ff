// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"unsafe"

	"heapstore/common"
	"heapstore/storage/page"
	"heapstore/storage/record"
	"heapstore/types"
)

const sizeDataPageHeader = uint32(16)
const sizeSlot = uint32(8)
const offsetNextPage = uint32(4)
const offsetFreeSpace = uint32(8)
const offsetSlotCount = uint32(12)
const offsetSlotOffset = uint32(16)
const offsetSlotSize = uint32(20)

// Slotted page format:
//
//	---------------------------------------------------------
//	| HEADER | ... FREE SPACE ... | ... INSERTED RECORDS ... |
//	---------------------------------------------------------
//	                              ^
//	                              free space pointer
//	Header format (size in bytes):
//	------------------------------------------------------------------
//	| PageNo (4) | NextPage (4) | FreeSpacePointer (4) | SlotCnt (4) |
//	------------------------------------------------------------------
//	----------------------------------------------
//	| Slot_1 offset (4) | Slot_1 size (4) | ... |
//	----------------------------------------------
//
// A slot with size 0 is free. Freed record space is compacted out
// immediately, so the record area is always packed against the end of
// the page.
type DataPage struct {
	page.Page
}

// CastPageAsDataPage casts the abstract Page struct into DataPage
func CastPageAsDataPage(page *page.Page) *DataPage {
	if page == nil {
		return nil
	}
	return (*DataPage)(unsafe.Pointer(page))
}

// Init prepares a freshly allocated page: own page number, empty slot
// array, terminal next pointer.
func (dp *DataPage) Init(pageNo types.PageID) {
	dp.SetPageNo(pageNo)
	dp.SetNextPage(types.InvalidPageID)
	dp.SetSlotCount(0)
	dp.SetFreeSpacePointer(common.PageSize) // point to the end of the page
}

func (dp *DataPage) SetPageNo(pageNo types.PageID) {
	dp.Copy(0, pageNo.Serialize())
}

func (dp *DataPage) PageNo() types.PageID {
	return types.NewPageIDFromBytes(dp.Data()[:])
}

func (dp *DataPage) SetNextPage(pageNo types.PageID) {
	dp.Copy(offsetNextPage, pageNo.Serialize())
}

func (dp *DataPage) NextPage() types.PageID {
	return types.NewPageIDFromBytes(dp.Data()[offsetNextPage:])
}

func (dp *DataPage) SetFreeSpacePointer(freeSpacePointer uint32) {
	dp.Copy(offsetFreeSpace, types.UInt32(freeSpacePointer).Serialize())
}

func (dp *DataPage) FreeSpacePointer() uint32 {
	return uint32(types.NewUInt32FromBytes(dp.Data()[offsetFreeSpace:]))
}

func (dp *DataPage) SetSlotCount(slotCount uint32) {
	dp.Copy(offsetSlotCount, types.UInt32(slotCount).Serialize())
}

func (dp *DataPage) SlotCount() uint32 {
	return uint32(types.NewUInt32FromBytes(dp.Data()[offsetSlotCount:]))
}

func (dp *DataPage) slotOffset(slot uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(dp.Data()[offsetSlotOffset+sizeSlot*slot:]))
}

func (dp *DataPage) setSlotOffset(slot uint32, offset uint32) {
	dp.Copy(offsetSlotOffset+sizeSlot*slot, types.UInt32(offset).Serialize())
}

func (dp *DataPage) slotSize(slot uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(dp.Data()[offsetSlotSize+sizeSlot*slot:]))
}

func (dp *DataPage) setSlotSize(slot uint32, size uint32) {
	dp.Copy(offsetSlotSize+sizeSlot*slot, types.UInt32(size).Serialize())
}

func (dp *DataPage) freeSpaceRemaining() uint32 {
	return dp.FreeSpacePointer() - sizeDataPageHeader - sizeSlot*dp.SlotCount()
}

// RecordCount returns the number of occupied slots
func (dp *DataPage) RecordCount() uint32 {
	count := uint32(0)
	slotCount := dp.SlotCount()
	for slot := uint32(0); slot < slotCount; slot++ {
		if dp.slotSize(slot) > 0 {
			count++
		}
	}
	return count
}

// InsertRecord places the record bytes on the page, reusing a free slot
// when one exists. It fails with ErrNoSpace when the record plus a slot
// entry does not fit.
func (dp *DataPage) InsertRecord(data []byte) (page.RID, error) {
	size := uint32(len(data))
	if size == 0 {
		return page.NullRID, ErrEmptyRecord
	}

	if dp.freeSpaceRemaining() < size+sizeSlot {
		return page.NullRID, ErrNoSpace
	}

	// try to find a free slot
	var slot uint32
	slotCount := dp.SlotCount()
	for slot = uint32(0); slot < slotCount; slot++ {
		if dp.slotSize(slot) == 0 {
			break
		}
	}

	fsp := dp.FreeSpacePointer() - size
	dp.SetFreeSpacePointer(fsp)
	dp.Copy(fsp, data)
	dp.setSlotOffset(slot, fsp)
	dp.setSlotSize(slot, size)

	if slot == slotCount {
		dp.SetSlotCount(slotCount + 1)
	}

	rid := page.RID{}
	rid.Set(dp.PageNo(), slot)
	return rid, nil
}

// GetRecord returns a view of the record in the given slot. The view
// borrows the page image and stays valid while the page is pinned.
func (dp *DataPage) GetRecord(rid page.RID) (*record.Record, error) {
	slot := rid.SlotNo
	if slot >= dp.SlotCount() {
		return nil, ErrInvalidSlot
	}

	size := dp.slotSize(slot)
	if size == 0 {
		return nil, ErrInvalidSlot
	}

	offset := dp.slotOffset(slot)
	return record.NewRecord(rid, dp.Data()[offset:offset+size]), nil
}

// DeleteRecord frees the record's slot and compacts the record area so
// free space stays contiguous.
func (dp *DataPage) DeleteRecord(rid page.RID) error {
	slot := rid.SlotNo
	if slot >= dp.SlotCount() {
		return ErrInvalidSlot
	}

	size := dp.slotSize(slot)
	if size == 0 {
		return ErrInvalidSlot
	}

	offset := dp.slotOffset(slot)
	fsp := dp.FreeSpacePointer()
	common.SH_Assert(offset >= fsp, "record offset must not precede the free space pointer")

	copy(dp.Data()[fsp+size:], dp.Data()[fsp:offset])
	dp.SetFreeSpacePointer(fsp + size)
	dp.setSlotSize(slot, 0)
	dp.setSlotOffset(slot, 0)

	// shift the slots whose records moved
	slotCount := dp.SlotCount()
	for i := uint32(0); i < slotCount; i++ {
		if dp.slotSize(i) != 0 && dp.slotOffset(i) < offset {
			dp.setSlotOffset(i, dp.slotOffset(i)+size)
		}
	}
	return nil
}

// FirstRecord yields the identifier of the first occupied slot, or
// ErrNoRecords on an empty page.
func (dp *DataPage) FirstRecord() (page.RID, error) {
	slotCount := dp.SlotCount()
	for slot := uint32(0); slot < slotCount; slot++ {
		if dp.slotSize(slot) > 0 {
			rid := page.RID{}
			rid.Set(dp.PageNo(), slot)
			return rid, nil
		}
	}
	return page.NullRID, ErrNoRecords
}

// NextRecord yields the first occupied slot after cur, or ErrEndOfPage
// when cur was the last one. A null cur starts from slot zero.
func (dp *DataPage) NextRecord(cur page.RID) (page.RID, error) {
	var slot uint32
	if !cur.IsNull() {
		slot = cur.SlotNo + 1
	}
	slotCount := dp.SlotCount()
	for ; slot < slotCount; slot++ {
		if dp.slotSize(slot) > 0 {
			rid := page.RID{}
			rid.Set(dp.PageNo(), slot)
			return rid, nil
		}
	}
	return page.NullRID, ErrEndOfPage
}
