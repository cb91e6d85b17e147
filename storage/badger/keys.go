package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	documentPrefix = "doc:"
	documentSeq    = "docseq"
)

// makeDocumentKey generates the primary key for a document row.
// Format: prefix + big-endian insertion sequence, so a prefix scan visits
// rows in insertion order.
func makeDocumentKey(seq uint64) []byte {
	buf := make([]byte, len(documentPrefix)+8)
	offset := copy(buf, documentPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
