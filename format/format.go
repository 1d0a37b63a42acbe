// Copyright (C) 2024 The DXReplay Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package format defines the on-disk framing of a dxreplay trace: the block
// container described in spec.md §3 and §6. A stream of blocks, each
// {u32 type, u64 size, u8 payload[size]}, little-endian throughout.
package format

// BlockType is the canonical kind of a block, after the compression bit has
// been masked off.
type BlockType uint32

const (
	BlockTypeUnknown BlockType = iota
	BlockTypeFunctionCall
	BlockTypeMethodCall
	BlockTypeMetaData
	BlockTypeStateMarker
	BlockTypeAnnotation
	blockTypeReservedStart
)

func (t BlockType) String() string {
	switch t {
	case BlockTypeFunctionCall:
		return "FunctionCall"
	case BlockTypeMethodCall:
		return "MethodCall"
	case BlockTypeMetaData:
		return "MetaData"
	case BlockTypeStateMarker:
		return "StateMarker"
	case BlockTypeAnnotation:
		return "Annotation"
	default:
		return "Unknown"
	}
}

// compressedBit is the top bit of the on-wire type field. A block whose
// payload was stored compressed has this bit set; RemoveCompressedBit
// yields the canonical BlockType either way.
const compressedBit BlockType = 1 << 31

// IsCompressed reports whether the compression bit is set on a raw,
// not-yet-masked wire type value.
func IsCompressed(wire BlockType) bool {
	return wire&compressedBit != 0
}

// RemoveCompressedBit masks off the compression flag, yielding the
// canonical BlockType used for dispatch.
func RemoveCompressedBit(wire BlockType) BlockType {
	return wire &^ compressedBit
}

// ApiCallId identifies a specific driver entry point. The identifier space
// is owned by replay/consumer's call-id table; this package only carries the
// wire type and the one value the core itself must name (the unknown
// sentinel). The frame-delimiter set is supplied by the consumer via
// IsFrameDelimiter.
type ApiCallId uint32

// ApiCallUnknown is the zero value, used when a call id has not yet been
// read off the wire.
const ApiCallUnknown ApiCallId = 0

// MetaDataType identifies the kind of a metadata block's payload.
type MetaDataType uint32

const (
	MetaDataTypeUnknown MetaDataType = iota
	MetaDataTypeFillMemory
	MetaDataTypeResizeWindow
)

// MarkerType identifies the kind of a state-marker block.
type MarkerType uint32

const (
	MarkerTypeUnknown MarkerType = iota
	MarkerTypeBeginMarker
	MarkerTypeEndMarker
)

// AnnotationType identifies the encoding of an annotation block's data, per
// spec.md §4.G. AnnotationTypeText covers the replay-options string; other variants are
// reserved for future label/data encodings.
type AnnotationType uint32

const (
	AnnotationTypeUnknown AnnotationType = iota
	AnnotationTypeText
	AnnotationTypeJSON
)

// AnnotationLabelReplayOptions is the well-known label the
// decode/annotation.ReplayOptionsHandler and ReplayOptionsEditor look for.
const AnnotationLabelReplayOptions = "replay-options"

// HeaderSize is the on-wire size, in bytes, of a BlockHeader: a u32 type
// followed by a u64 size.
const HeaderSize = 4 + 8

// BlockHeader is the fixed-size prefix of every block.
type BlockHeader struct {
	Type BlockType // raw wire value, compression bit included
	Size uint64    // length of the payload that follows, in bytes
}

// Block is a single framed record together with its raw payload bytes. The
// preload buffer and the annotation editor do not use it; they carry raw
// bytes and BlockHeader values directly.
type Block struct {
	Header  BlockHeader
	Payload []byte
}
