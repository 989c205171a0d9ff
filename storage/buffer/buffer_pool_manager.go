// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"github.com/golang-collections/collections/queue"
	"github.com/sasha-s/go-deadlock"

	"heapstore/common"
	"heapstore/errors"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/types"
)

const ErrPageNotFound = errors.Error("could not find page in the buffer pool")
const ErrNoVictimFrame = errors.Error("all buffer pool frames are pinned")
const ErrPagePinned = errors.Error("page is still pinned")

// frameKey addresses a frame by the file it belongs to and the page
// number inside that file.
type frameKey struct {
	fileID uint32
	pageNo types.PageID
}

// frame couples a resident page with the open file it was read from,
// so victim writeback goes to the right file.
type frame struct {
	page *page.Page
	file disk.DBFile
}

// BufferPoolManager caches pages of every open file behind a pin
// protocol: a page pointer stays valid while the (file, pageNo) pin is
// held, and the dirty flag passed to UnpinPage must cover every write
// made through that pointer since the pin.
type BufferPoolManager struct {
	frames    []frame
	replacer  *ClockReplacer
	freeList  *queue.Queue
	pageTable map[frameKey]FrameID
	mutex     deadlock.Mutex
}

// NewBufferPoolManager returns an empty buffer pool manager
func NewBufferPoolManager(poolSize uint32) *BufferPoolManager {
	freeList := queue.New()
	frames := make([]frame, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList.Enqueue(FrameID(i))
	}

	replacer := NewClockReplacer(poolSize)
	return &BufferPoolManager{frames, replacer, freeList, make(map[frameKey]FrameID), deadlock.Mutex{}}
}

// AllocPage allocates a new page at the end of the file and returns it
// pinned.
func (b *BufferPoolManager) AllocPage(f disk.DBFile) (*page.Page, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, err := b.getFrameID()
	if err != nil {
		return nil, err
	}

	pageNo, err := f.AllocatePage()
	if err != nil {
		b.freeList.Enqueue(*frameID)
		return nil, err
	}

	pg := page.NewEmpty(pageNo)
	b.pageTable[frameKey{f.ID(), pageNo}] = *frameID
	b.frames[*frameID] = frame{pg, f}

	return pg, nil
}

// FetchPage pins the requested page, reading it from the file if it is
// not resident.
func (b *BufferPoolManager) FetchPage(f disk.DBFile, pageNo types.PageID) (*page.Page, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	key := frameKey{f.ID(), pageNo}
	if frameID, ok := b.pageTable[key]; ok {
		pg := b.frames[frameID].page
		pg.IncPinCount()
		b.replacer.Pin(frameID)
		return pg, nil
	}

	frameID, err := b.getFrameID()
	if err != nil {
		return nil, err
	}

	var pageData [common.PageSize]byte
	if err := f.ReadPage(pageNo, pageData[:]); err != nil {
		b.freeList.Enqueue(*frameID)
		return nil, err
	}
	pg := page.New(pageNo, 1, false, &pageData)
	b.pageTable[key] = *frameID
	b.frames[*frameID] = frame{pg, f}

	return pg, nil
}

// UnpinPage releases one pin on the target page. The dirty flag is
// ORed into the frame; it is never cleared here.
func (b *BufferPoolManager) UnpinPage(f disk.DBFile, pageNo types.PageID, dirty bool) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	key := frameKey{f.ID(), pageNo}
	frameID, ok := b.pageTable[key]
	if !ok {
		return ErrPageNotFound
	}

	pg := b.frames[frameID].page
	pg.DecPinCount()
	if pg.PinCount() <= 0 {
		b.replacer.Unpin(frameID)
	}
	if dirty {
		pg.SetIsDirty(true)
	}
	return nil
}

// FlushPage writes the target page image back to its file. The pin
// state is untouched.
func (b *BufferPoolManager) FlushPage(f disk.DBFile, pageNo types.PageID) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	key := frameKey{f.ID(), pageNo}
	frameID, ok := b.pageTable[key]
	if !ok {
		return ErrPageNotFound
	}
	return b.flushFrame(frameID)
}

// FlushFile writes back every dirty resident page of the file.
func (b *BufferPoolManager) FlushFile(f disk.DBFile) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for key, frameID := range b.pageTable {
		if key.fileID != f.ID() {
			continue
		}
		if err := b.flushFrame(frameID); err != nil {
			return err
		}
	}
	return nil
}

// DropFile flushes and evicts every resident page of the file. It
// fails with ErrPagePinned if any of them is still pinned; the pool
// stays unchanged in that case.
func (b *BufferPoolManager) DropFile(f disk.DBFile) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	dropped := make([]frameKey, 0)
	for key, frameID := range b.pageTable {
		if key.fileID != f.ID() {
			continue
		}
		if b.frames[frameID].page.PinCount() > 0 {
			return ErrPagePinned
		}
		dropped = append(dropped, key)
	}

	for _, key := range dropped {
		frameID := b.pageTable[key]
		if err := b.flushFrame(frameID); err != nil {
			return err
		}
		b.replacer.Pin(frameID)
		delete(b.pageTable, key)
		b.frames[frameID] = frame{}
		b.freeList.Enqueue(frameID)
	}
	return nil
}

// FlushAllPages writes back every dirty resident page in the pool.
func (b *BufferPoolManager) FlushAllPages() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, frameID := range b.pageTable {
		if err := b.flushFrame(frameID); err != nil {
			return err
		}
	}
	return nil
}

// flushFrame writes one frame back if dirty. Caller holds the mutex.
func (b *BufferPoolManager) flushFrame(frameID FrameID) error {
	fr := b.frames[frameID]
	if fr.page == nil || !fr.page.IsDirty() {
		return nil
	}
	data := fr.page.Data()
	if err := fr.file.WritePage(fr.page.ID(), data[:]); err != nil {
		return err
	}
	fr.page.SetIsDirty(false)
	return nil
}

// getFrameID hands out a free frame, evicting a victim when the free
// list is empty. Caller holds the mutex.
func (b *BufferPoolManager) getFrameID() (*FrameID, error) {
	if b.freeList.Len() > 0 {
		frameID := b.freeList.Dequeue().(FrameID)
		return &frameID, nil
	}

	victim := b.replacer.Victim()
	if victim == nil {
		return nil, ErrNoVictimFrame
	}

	fr := b.frames[*victim]
	if fr.page != nil {
		if fr.page.IsDirty() {
			data := fr.page.Data()
			if err := fr.file.WritePage(fr.page.ID(), data[:]); err != nil {
				// writeback failed: the frame stays resident and victimizable
				b.replacer.Unpin(*victim)
				return nil, err
			}
		}
		delete(b.pageTable, frameKey{fr.file.ID(), fr.page.ID()})
		b.frames[*victim] = frame{}
	}
	return victim, nil
}
