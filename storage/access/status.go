package access

import "heapstore/errors"

const ErrBadPageNo = errors.Error("record identifier has a negative page number")
const ErrBadScanParam = errors.Error("invalid scan filter parameters")
const ErrNoRecords = errors.Error("page has no records")
const ErrEndOfPage = errors.Error("page cursor is past the last slot")
const ErrFileEOF = errors.Error("scan ran off the end of the page chain")
const ErrNoSpace = errors.Error("there is not enough space on the page")
const ErrInvalidSlot = errors.Error("slot is not occupied")
const ErrEmptyRecord = errors.Error("record cannot be empty")
