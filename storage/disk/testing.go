// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"os"
	"path/filepath"
)

// DiskManagerTest is the os.File implementation of DiskManager rooted
// in a temporary directory, for testing purposes
type DiskManagerTest struct {
	dir string
	DiskManager
}

// NewDiskManagerTest returns a DiskManager instance for testing purposes
func NewDiskManagerTest() *DiskManagerTest {
	dir, err := os.MkdirTemp("", "heapstore")
	if err != nil {
		panic(err)
	}
	return &DiskManagerTest{dir, NewDiskManagerImpl()}
}

func (d *DiskManagerTest) CreateFile(name string) error {
	return d.DiskManager.CreateFile(filepath.Join(d.dir, name))
}

func (d *DiskManagerTest) DestroyFile(name string) error {
	return d.DiskManager.DestroyFile(filepath.Join(d.dir, name))
}

func (d *DiskManagerTest) OpenFile(name string) (DBFile, error) {
	return d.DiskManager.OpenFile(filepath.Join(d.dir, name))
}

// ShutDown removes the temporary directory and everything under it
func (d *DiskManagerTest) ShutDown() {
	defer os.RemoveAll(d.dir)
	d.DiskManager.ShutDown()
}
