package page

import (
	"heapstore/common"
	"heapstore/types"
)

// Page represents a buffer pool frame holding one on-disk page.
// A Page pointer handed out by the buffer pool stays valid only while
// the corresponding (file, pageNo) pin is held.
type Page struct {
	id       types.PageID
	pinCount int
	isDirty  bool
	data     *[common.PageSize]byte
}

// IncPinCount increments pin count
func (p *Page) IncPinCount() {
	p.pinCount++
}

// DecPinCount decrements pin count
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// PinCount returns the pin count
func (p *Page) PinCount() int {
	return p.pinCount
}

// ID returns the page id
func (p *Page) ID() types.PageID {
	return p.id
}

func (p *Page) Data() *[common.PageSize]byte {
	return p.data
}

// Copy copies data to the page's data area starting at offset
func (p *Page) Copy(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

func (p *Page) IsDirty() bool {
	return p.isDirty
}

func New(id types.PageID, pinCount int, isDirty bool, data *[common.PageSize]byte) *Page {
	return &Page{id, pinCount, isDirty, data}
}

func NewEmpty(id types.PageID) *Page {
	return &Page{id, 1, false, &[common.PageSize]byte{}}
}
