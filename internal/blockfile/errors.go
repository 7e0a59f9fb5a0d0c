package blockfile

import (
	"errors"
	"fmt"
)

var ErrClosed = errors.New("block file reader closed")

// TruncatedFileError reports a file shorter than a record requires.
type TruncatedFileError struct {
	File   uint32
	Offset int64
	Want   int64
	Have   int64
}

func (e *TruncatedFileError) Error() string {
	return fmt.Sprintf("%s truncated: need %d bytes at offset %d, file has %d",
		FileName(e.File), e.Want, e.Offset, e.Have)
}

// MagicMismatchError reports framing that does not start with the network magic.
type MagicMismatchError struct {
	File   uint32
	Offset int64
	Want   [4]byte
	Got    [4]byte
}

func (e *MagicMismatchError) Error() string {
	return fmt.Sprintf("%s at offset %d: magic %x, want %x", FileName(e.File), e.Offset, e.Got, e.Want)
}
