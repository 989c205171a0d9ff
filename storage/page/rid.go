package page

import "heapstore/types"

// RID is the record identifier for the given page identifier and slot number
type RID struct {
	PageNo types.PageID
	SlotNo uint32
}

// NullRID denotes "no record".
var NullRID = RID{PageNo: types.InvalidPageID, SlotNo: 0}

// Set sets the record identifier
func (r *RID) Set(pageNo types.PageID, slot uint32) {
	r.PageNo = pageNo
	r.SlotNo = slot
}

// IsNull reports whether r denotes no record.
func (r RID) IsNull() bool {
	return !r.PageNo.IsValid()
}
