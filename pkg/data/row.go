// Package data implements the fixed-schema row codec. A row serializes
// to exactly RowSize bytes; textual fields are zero-padded to their
// maximum widths.
package data

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"rqlite/pkg/customerrors"
)

// bin is the byte order used for all marshals/unmarshals.
var bin = binary.LittleEndian

const (
	IDSize             = 8
	NameMaxSize        = 32
	DescriptionMaxSize = 256

	// RowSize is the serialized width of a row: id, then name and
	// description padded to their maximum widths.
	RowSize = IDSize + NameMaxSize + DescriptionMaxSize
)

// Row is one record of the table. ID is the unique primary key.
type Row struct {
	ID          uint64
	Name        string
	Description string
}

func (r *Row) MarshalBinary() ([]byte, error) {
	if len(r.Name) > NameMaxSize {
		return nil, errors.Wrapf(customerrors.ErrNameTooLong, "failed to marshal row %d", r.ID)
	}
	if len(r.Description) > DescriptionMaxSize {
		return nil, errors.Wrapf(customerrors.ErrDescriptionTooLong, "failed to marshal row %d", r.ID)
	}

	buf := make([]byte, RowSize)
	bin.PutUint64(buf[0:IDSize], r.ID)
	copy(buf[IDSize:IDSize+NameMaxSize], r.Name)
	copy(buf[IDSize+NameMaxSize:RowSize], r.Description)
	return buf, nil
}

func (r *Row) UnmarshalBinary(d []byte) error {
	if r == nil {
		return errors.New("cannot unmarshal into nil row")
	}
	if len(d) < RowSize {
		return errors.New("in-sufficient data for unmarshal")
	}

	r.ID = bin.Uint64(d[0:IDSize])
	r.Name = trimPadding(d[IDSize : IDSize+NameMaxSize])
	r.Description = trimPadding(d[IDSize+NameMaxSize : RowSize])
	return nil
}

// String renders the row the way the select command prints it.
func (r *Row) String() string {
	return fmt.Sprintf("[%d, %s, %s]", r.ID, r.Name, r.Description)
}

// trimPadding recovers the textual prefix of a zero-padded field.
func trimPadding(d []byte) string {
	if i := bytes.IndexByte(d, 0); i >= 0 {
		return string(d[:i])
	}
	return string(d)
}
