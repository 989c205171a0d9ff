package record

import (
	"heapstore/storage/page"
)

// Record is a view over a contiguous byte buffer stored on a data page.
// It has no internal structure known to this layer. The view stays
// valid only while the containing page remains pinned; callers that
// outlive the pin must take a Copy.
type Record struct {
	rid  page.RID
	data []byte
}

func NewRecord(rid page.RID, data []byte) *Record {
	return &Record{rid, data}
}

func (r *Record) RID() page.RID {
	return r.rid
}

func (r *Record) SetRID(rid page.RID) {
	r.rid = rid
}

func (r *Record) Data() []byte {
	return r.data
}

func (r *Record) Size() uint32 {
	return uint32(len(r.data))
}

// Copy materializes an owned copy of the record bytes, detached from
// the pinned page image the view borrows from.
func (r *Record) Copy() *Record {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &Record{r.rid, data}
}
