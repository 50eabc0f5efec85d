// Binary encoding for compiled automaton tables.
//
// Format v1 (little-endian):
//
//	magic:        4 bytes "SIEV"
//	version:      uint16
//	patternCount: uint32
//	per pattern:
//	  strLen: uint32
//	  str:    [strLen]byte
//	nodeCount: uint32
//	per node:
//	  childCount: uint32
//	  children:   [childCount]× (symbol:uint32 + child:uint32), symbols ascending
//	  outCount:   uint32
//	  outputs:    [outCount]× uint32
package bbolt

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/corey/sieve/internal/domain/automaton"
)

// tableVersion is bumped whenever the byte layout changes. Decoders reject
// other versions; the cache treats a version mismatch as a miss.
const tableVersion uint16 = 1

var tableMagic = [4]byte{'S', 'I', 'E', 'V'}

// childSize is the byte size of one encoded child edge (symbol + node id).
const childSize = 8

// EncodeTable encodes a table to the v1 binary format. Children are
// written in ascending symbol order, so encoding the same table always
// yields the same bytes. A single buffer is pre-allocated to avoid
// repeated growth.
func EncodeTable(t *automaton.Table) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("nil table")
	}

	// Pre-calculate total size for single allocation.
	// Header: 4 (magic) + 2 (version) + 4 (patternCount)
	// Per pattern: 4 (strLen) + len(str)
	// Per node: 4 (childCount) + childCount*8 + 4 (outCount) + outCount*4
	totalSize := 4 + 2 + 4
	for _, p := range t.Patterns {
		totalSize += 4 + len(p)
	}
	totalSize += 4
	for i := range t.Nodes {
		totalSize += 4 + len(t.Nodes[i].Children)*childSize + 4 + len(t.Nodes[i].Output)*4
	}

	buf := make([]byte, totalSize)
	offset := 0

	copy(buf[offset:], tableMagic[:])
	offset += 4
	binary.LittleEndian.PutUint16(buf[offset:], tableVersion)
	offset += 2

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(t.Patterns)))
	offset += 4
	for _, p := range t.Patterns {
		binary.LittleEndian.PutUint32(buf[offset:], uint32(len(p)))
		offset += 4
		copy(buf[offset:], p)
		offset += len(p)
	}

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(t.Nodes)))
	offset += 4
	for i := range t.Nodes {
		n := &t.Nodes[i]

		// Sort symbols for deterministic output.
		symbols := make([]rune, 0, len(n.Children))
		for r := range n.Children {
			symbols = append(symbols, r)
		}
		sort.Slice(symbols, func(a, b int) bool { return symbols[a] < symbols[b] })

		binary.LittleEndian.PutUint32(buf[offset:], uint32(len(symbols)))
		offset += 4
		for _, r := range symbols {
			binary.LittleEndian.PutUint32(buf[offset:], uint32(r))
			offset += 4
			binary.LittleEndian.PutUint32(buf[offset:], uint32(n.Children[r]))
			offset += 4
		}

		binary.LittleEndian.PutUint32(buf[offset:], uint32(len(n.Output)))
		offset += 4
		for _, pi := range n.Output {
			binary.LittleEndian.PutUint32(buf[offset:], uint32(pi))
			offset += 4
		}
	}

	return buf, nil
}

// DecodeTable decodes v1 binary data back to a table. Every read is
// bounds-checked to avoid panics on corrupt data, and element counts are
// checked against the remaining byte budget before any allocation sized
// from them.
func DecodeTable(data []byte) (*automaton.Table, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("table blob too short: %d bytes", len(data))
	}

	offset := 0
	if string(data[:4]) != string(tableMagic[:]) {
		return nil, fmt.Errorf("bad magic %q, not a table blob", data[:4])
	}
	offset += 4

	version := binary.LittleEndian.Uint16(data[offset:])
	offset += 2
	if version != tableVersion {
		return nil, fmt.Errorf("unsupported table version %d (want %d)", version, tableVersion)
	}

	patternCount := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	// Each pattern needs at least its 4-byte length prefix.
	if int64(patternCount)*4 > int64(len(data)-offset) {
		return nil, fmt.Errorf("pattern count %d exceeds blob size", patternCount)
	}

	t := &automaton.Table{Patterns: make([]string, patternCount)}
	for i := uint32(0); i < patternCount; i++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("truncated at pattern %d length (offset %d)", i, offset)
		}
		strLen := int(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4

		if strLen < 0 || offset+strLen > len(data) {
			return nil, fmt.Errorf("truncated at pattern %d (offset %d, need %d)", i, offset, strLen)
		}
		t.Patterns[i] = string(data[offset : offset+strLen])
		offset += strLen
	}

	if offset+4 > len(data) {
		return nil, fmt.Errorf("truncated at node count (offset %d)", offset)
	}
	nodeCount := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	// Each node needs at least its two count fields.
	if int64(nodeCount)*8 > int64(len(data)-offset) {
		return nil, fmt.Errorf("node count %d exceeds blob size", nodeCount)
	}

	t.Nodes = make([]automaton.TableNode, nodeCount)
	for i := uint32(0); i < nodeCount; i++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("truncated at node %d child count (offset %d)", i, offset)
		}
		childCount := binary.LittleEndian.Uint32(data[offset:])
		offset += 4

		childBytes := int(childCount) * childSize
		if offset+childBytes > len(data) {
			return nil, fmt.Errorf("truncated at node %d children (offset %d, need %d)", i, offset, childBytes)
		}
		if childCount > 0 {
			children := make(map[rune]int32, childCount)
			for j := uint32(0); j < childCount; j++ {
				symbol := rune(binary.LittleEndian.Uint32(data[offset:]))
				offset += 4
				children[symbol] = int32(binary.LittleEndian.Uint32(data[offset:]))
				offset += 4
			}
			t.Nodes[i].Children = children
		}

		if offset+4 > len(data) {
			return nil, fmt.Errorf("truncated at node %d output count (offset %d)", i, offset)
		}
		outCount := binary.LittleEndian.Uint32(data[offset:])
		offset += 4

		outBytes := int(outCount) * 4
		if offset+outBytes > len(data) {
			return nil, fmt.Errorf("truncated at node %d outputs (offset %d, need %d)", i, offset, outBytes)
		}
		if outCount > 0 {
			outputs := make([]int32, outCount)
			for j := uint32(0); j < outCount; j++ {
				outputs[j] = int32(binary.LittleEndian.Uint32(data[offset:]))
				offset += 4
			}
			t.Nodes[i].Output = outputs
		}
	}

	if offset != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after table (offset %d)", len(data)-offset, offset)
	}

	return t, nil
}
