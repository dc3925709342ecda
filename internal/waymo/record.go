package waymo

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// FileExtension is the extension of source log files.
const FileExtension = ".tfrecord"

// ErrCorruptRecord is returned when a container record fails its length or
// payload checksum, or is truncated. Records after it cannot be located.
var ErrCorruptRecord = errors.New("waymo: corrupt record")

// maxRecordSize bounds a single payload; frames with images are tens of MB.
const maxRecordSize = 1 << 30

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maskedCRC is the TFRecord checksum: a rotated, offset CRC32-C.
func maskedCRC(b []byte) uint32 {
	c := crc32.Checksum(b, castagnoli)
	return ((c >> 15) | (c << 17)) + 0xa282ead8
}

// RecordReader reads length-delimited records from a TFRecord container:
//
//	uint64 length | uint32 masked_crc(length) | payload | uint32 masked_crc(payload)
//
// All integers are little-endian.
type RecordReader struct {
	r      *bufio.Reader
	offset int64
	count  int
}

// NewRecordReader wraps r.
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: bufio.NewReaderSize(r, 1<<20)}
}

// Offset is the byte offset of the next record.
func (rr *RecordReader) Offset() int64 {
	return rr.offset
}

// Next returns the next payload. It returns io.EOF at a clean end of file
// and an error wrapping ErrCorruptRecord otherwise.
func (rr *RecordReader) Next() ([]byte, error) {
	var header [12]byte
	n, err := io.ReadFull(rr.r, header[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, rr.corrupt("truncated header: %v", err)
	}

	length := binary.LittleEndian.Uint64(header[:8])
	if got, want := maskedCRC(header[:8]), binary.LittleEndian.Uint32(header[8:]); got != want {
		return nil, rr.corrupt("length checksum %08x, want %08x", got, want)
	}
	if length > maxRecordSize {
		return nil, rr.corrupt("record length %d exceeds limit", length)
	}

	payload := make([]byte, length+4)
	if _, err := io.ReadFull(rr.r, payload); err != nil {
		return nil, rr.corrupt("truncated payload: %v", err)
	}
	data, footer := payload[:length], payload[length:]
	if got, want := maskedCRC(data), binary.LittleEndian.Uint32(footer); got != want {
		return nil, rr.corrupt("payload checksum %08x, want %08x", got, want)
	}

	rr.offset += int64(len(header)) + int64(len(payload))
	rr.count++
	return data, nil
}

func (rr *RecordReader) corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("%w: record %d at offset %d: %s", ErrCorruptRecord, rr.count, rr.offset, fmt.Sprintf(format, args...))
}

// WriteRecord appends one framed payload to w.
func WriteRecord(w io.Writer, payload []byte) error {
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(payload)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write record header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write record payload: %w", err)
	}
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], maskedCRC(payload))
	if _, err := w.Write(footer[:]); err != nil {
		return fmt.Errorf("failed to write record footer: %w", err)
	}
	return nil
}
