// Package pager maintains the mapping between page numbers and in-memory
// page images of the single backing file. Pages are loaded on demand,
// mutated in place and written back on Close.
package pager

import (
	"os"

	"github.com/pkg/errors"

	"rqlite/pkg/customerrors"
	"rqlite/util/logger"
)

const (
	// PageSize is the unit of storage and caching.
	PageSize = 4096

	// PageMaxNum caps how many pages the backing file can ever hold.
	// The cache holds every page the file can grow to, so there is
	// no eviction.
	PageMaxNum = 64
)

// Page is the in-memory image of one on-disk page.
type Page struct {
	Num  uint32
	Data []byte
}

// Pager owns the backing file and the page cache.
type Pager struct {
	file   *os.File
	nPages uint32
	pages  [PageMaxNum]*Page
}

// Open opens (creating if necessary) the named database file. The file
// length must be a whole multiple of PageSize.
func Open(fileName string) (*Pager, error) {
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database file")
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "failed to stat database file")
	}

	if info.Size()%PageSize != 0 {
		_ = file.Close()
		return nil, errors.New("invalid database file, should be page-aligned")
	}

	return &Pager{
		file:   file,
		nPages: uint32(info.Size() / PageSize),
	}, nil
}

// Count returns the number of pages ever allocated.
func (p *Pager) Count() uint32 {
	return p.nPages
}

// Page returns the image of page num, reading it from the file on first
// use. Page numbers at or beyond PageMaxNum cannot exist.
func (p *Pager) Page(num uint32) (*Page, error) {
	if num >= PageMaxNum {
		return nil, errors.Wrapf(customerrors.ErrTableFull, "page %d is beyond the cache limit", num)
	}

	if p.pages[num] != nil {
		return p.pages[num], nil
	}

	page := &Page{Num: num, Data: make([]byte, PageSize)}
	if num < p.nPages {
		if _, err := p.file.ReadAt(page.Data, int64(num)*PageSize); err != nil {
			return nil, errors.Wrapf(err, "failed to read page %d", num)
		}
	}

	p.pages[num] = page
	return page, nil
}

// Alloc reserves the smallest page number that has never existed and
// returns its zeroed image.
func (p *Pager) Alloc() (*Page, error) {
	page, err := p.Page(p.nPages)
	if err != nil {
		return nil, err
	}
	p.nPages = page.Num + 1
	return page, nil
}

// Flush writes the cached image of page num back to the file. Unloaded
// slots are skipped.
func (p *Pager) Flush(num uint32) error {
	if num >= PageMaxNum || p.pages[num] == nil {
		return nil
	}
	_, err := p.file.WriteAt(p.pages[num].Data, int64(num)*PageSize)
	return errors.Wrapf(err, "failed to write page %d", num)
}

// Close flushes every allocated page and closes the backing file.
func (p *Pager) Close() error {
	for num := uint32(0); num < p.nPages; num++ {
		if err := p.Flush(num); err != nil {
			logger.C("pager").WithError(err).Errorf("failed to flush page %d", num)
			_ = p.file.Close()
			return err
		}
	}
	return errors.Wrap(p.file.Close(), "failed to close database file")
}
