package common

var EnableDebug bool = false

const (
	// invalid page id
	InvalidPageID = -1
	// size of a page in bytes
	PageSize = 4096
	// default number of frames in the buffer pool
	BufferPoolSize = 32
	// width of the file name field on the heap file header page,
	// terminator included
	FileNameSize = 64
)
