// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"bytes"
	"encoding/binary"
	"math"

	pair "github.com/notEpsilon/go-pair"

	"heapstore/common"
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/storage/record"
	"heapstore/types"
)

// Operator compares the filtered attribute against the filter value.
type Operator int

const (
	LT Operator = iota
	LTE
	EQ
	GTE
	GT
	NE
)

func (op Operator) IsValid() bool {
	return op >= LT && op <= NE
}

// Filter selects records by one attribute read straight out of the
// record bytes: length bytes at offset, interpreted as typ, compared
// against value with op.
type Filter struct {
	Offset int32
	Length int32
	Type   types.AttrType
	Value  []byte
	Op     Operator
}

// HeapFileScan is a forward scan over the heap file's page chain with
// an optional typed predicate and a mark/reset bookmark. It owns its
// own heap file handle; ending the scan releases only the scan's data
// page pin, closing it releases the handle too.
type HeapFileScan struct {
	*HeapFile
	filter *Filter
	marked pair.Pair[types.PageID, page.RID]
}

// NewHeapFileScan opens a scan on the named heap file. No filtering is
// active until StartScan installs a filter.
func NewHeapFileScan(diskMgr disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) (*HeapFileScan, error) {
	h, err := NewHeapFile(diskMgr, bufMgr, fileName)
	if err != nil {
		return nil, err
	}
	return &HeapFileScan{
		HeapFile: h,
		filter:   nil,
		marked:   pair.Pair[types.PageID, page.RID]{First: types.InvalidPageID, Second: page.NullRID},
	}, nil
}

// StartScan installs the scan filter. A nil value disables filtering
// regardless of the other parameters. Invalid parameters fail with
// ErrBadScanParam.
func (s *HeapFileScan) StartScan(offset int32, length int32, typ types.AttrType, value []byte, op Operator) error {
	if value == nil {
		// no filtering requested
		s.filter = nil
		return nil
	}

	if offset < 0 || length < 1 ||
		!typ.IsValid() ||
		((typ == types.Integer || typ == types.Float) && length != typ.Size()) ||
		int32(len(value)) < length ||
		!op.IsValid() {
		return ErrBadScanParam
	}

	s.filter = &Filter{Offset: offset, Length: length, Type: typ, Value: value, Op: op}
	return nil
}

// EndScan unpins the scan's current data page, leaving the underlying
// handle open. Idempotent on a freshly ended scan.
func (s *HeapFileScan) EndScan() error {
	if s.curPage != nil {
		err := s.bufMgr.UnpinPage(s.file, s.curPageNo, s.curDirtyFlag)
		s.curPage = nil
		s.curPageNo = types.InvalidPageID
		s.curDirtyFlag = false
		return err
	}
	return nil
}

// Close ends the scan and closes the underlying heap file handle.
func (s *HeapFileScan) Close() {
	if err := s.EndScan(); err != nil {
		common.ShPrintf(common.ERROR, "HeapFileScan::Close: unpin of data page failed: %v\n", err)
	}
	s.HeapFile.Close()
}

// MarkScan snapshots the position of the scan
func (s *HeapFileScan) MarkScan() {
	s.marked = pair.Pair[types.PageID, page.RID]{First: s.curPageNo, Second: s.curRec}
}

// ResetScan restores the scan to the marked position. The marked page
// is assumed to still exist in the file.
func (s *HeapFileScan) ResetScan() error {
	if s.marked.First != s.curPageNo {
		if s.curPage != nil {
			if err := s.bufMgr.UnpinPage(s.file, s.curPageNo, s.curDirtyFlag); err != nil {
				return err
			}
			s.curPage = nil
		}

		curPage, err := s.bufMgr.FetchPage(s.file, s.marked.First)
		if err != nil {
			return err
		}
		s.curPage = CastPageAsDataPage(curPage)
		s.curPageNo = s.marked.First
		s.curDirtyFlag = false // it will be clean
		s.curRec = s.marked.Second
		return nil
	}
	s.curRec = s.marked.Second
	return nil
}

// ScanNext advances the scan to the next record matching the filter
// and returns its identifier. It fails with ErrNoRecords on a file
// with an empty chain and with ErrFileEOF once the chain is exhausted.
func (s *HeapFileScan) ScanNext() (page.RID, error) {
	for {
		if s.curPage == nil {
			// start from the beginning
			firstPage := s.headerPage.FirstPage()
			if !firstPage.IsValid() {
				return page.NullRID, ErrNoRecords
			}

			curPage, err := s.bufMgr.FetchPage(s.file, firstPage)
			if err != nil {
				return page.NullRID, err
			}
			s.curPage = CastPageAsDataPage(curPage)
			s.curPageNo = firstPage
			s.curDirtyFlag = false

			rid, err := s.curPage.FirstRecord()
			if err != nil {
				if err == ErrNoRecords {
					// empty page: let the next round follow the chain
					s.curRec = page.NullRID
					continue
				}
				return page.NullRID, err
			}
			s.curRec = rid
		} else {
			rid, err := s.curPage.NextRecord(s.curRec)
			if err == nil {
				s.curRec = rid
			} else if err == ErrEndOfPage {
				// move to the next page in the chain
				nextPage := s.curPage.NextPage()
				if !nextPage.IsValid() {
					return page.NullRID, ErrFileEOF
				}

				if err := s.bufMgr.UnpinPage(s.file, s.curPageNo, s.curDirtyFlag); err != nil {
					return page.NullRID, err
				}
				s.curPage = nil

				curPage, err := s.bufMgr.FetchPage(s.file, nextPage)
				if err != nil {
					return page.NullRID, err
				}
				s.curPage = CastPageAsDataPage(curPage)
				s.curPageNo = nextPage
				s.curDirtyFlag = false

				rid, err := s.curPage.FirstRecord()
				if err != nil {
					if err == ErrNoRecords {
						s.curRec = page.NullRID
						continue
					}
					return page.NullRID, err
				}
				s.curRec = rid
			} else {
				return page.NullRID, err
			}
		}

		if s.filter == nil {
			return s.curRec, nil
		}

		rec, err := s.curPage.GetRecord(s.curRec)
		if err != nil {
			return page.NullRID, err
		}
		if s.matchRec(rec) {
			return s.curRec, nil
		}
		// no match: keep scanning
	}
}

// GetRecord returns a view of the record at the scan cursor. The page
// stays pinned.
func (s *HeapFileScan) GetRecord() (*record.Record, error) {
	return s.curPage.GetRecord(s.curRec)
}

// DeleteRecord frees the slot of the record at the scan cursor and
// updates the file's record count. The emptied page is not reclaimed.
func (s *HeapFileScan) DeleteRecord() error {
	err := s.curPage.DeleteRecord(s.curRec)
	s.curDirtyFlag = true

	s.headerPage.SetRecordCount(s.headerPage.RecordCount() - 1)
	s.hdrDirtyFlag = true
	return err
}

// MarkDirty flags the scan's current page as modified, for callers
// that mutate the record bytes in place.
func (s *HeapFileScan) MarkDirty() {
	s.curDirtyFlag = true
}

// matchRec evaluates the filter against the record bytes. A record too
// short for the filtered attribute does not match; that is not an
// error. The attribute bytes are decoded with encoding/binary, so the
// record data needs no alignment.
func (s *HeapFileScan) matchRec(rec *record.Record) bool {
	if s.filter == nil {
		return true
	}

	f := s.filter
	if f.Offset+f.Length > int32(rec.Size()) {
		return false
	}

	attr := rec.Data()[f.Offset : f.Offset+f.Length]

	var diff float64
	switch f.Type {
	case types.Integer:
		a := int32(binary.LittleEndian.Uint32(attr))
		b := int32(binary.LittleEndian.Uint32(f.Value))
		diff = float64(a) - float64(b)
	case types.Float:
		a := math.Float32frombits(binary.LittleEndian.Uint32(attr))
		b := math.Float32frombits(binary.LittleEndian.Uint32(f.Value))
		diff = float64(a) - float64(b)
	case types.String:
		diff = float64(bytes.Compare(attr, f.Value[:f.Length]))
	}

	switch f.Op {
	case LT:
		return diff < 0
	case LTE:
		return diff <= 0
	case EQ:
		return diff == 0
	case GTE:
		return diff >= 0
	case GT:
		return diff > 0
	case NE:
		return diff != 0
	}
	return false
}
