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

// Package annotation reads, edits, and rewrites the labelled side-channel
// records (notably the saved replay-option string) carried in an annotation
// block's payload, mirroring AnnotationHandler, ReplayOptionsAnnotationHandler,
// AnnotationEditor and ReplayOptionsEditor.
package annotation

import (
	"encoding/binary"
	"fmt"
)

// DecodePayload splits an annotation block's payload into its label and
// data strings. The caller has already consumed the leading
// annotation-type word (the processor reads it to dispatch on BlockType,
// same as it does for a function call's api call id), so what remains is
// {u32 label_len, u32 data_len, char label[], char data[]}.
func DecodePayload(body []byte) (label, data string, err error) {
	if len(body) < 8 {
		return "", "", fmt.Errorf("annotation: payload too short (%d bytes)", len(body))
	}
	labelLen := uint64(binary.LittleEndian.Uint32(body[0:4]))
	dataLen := uint64(binary.LittleEndian.Uint32(body[4:8]))
	want := 8 + labelLen + dataLen
	if uint64(len(body)) < want {
		return "", "", fmt.Errorf("annotation: payload declares %d bytes, has %d", want, len(body))
	}
	label = string(body[8 : 8+labelLen])
	data = string(body[8+labelLen : 8+labelLen+dataLen])
	return label, data, nil
}

// EncodePayload is DecodePayload's inverse: the label_len/data_len prefixed
// body written after the annotation-type word when a block is rewritten or
// appended.
func EncodePayload(label, data string) []byte {
	body := make([]byte, 8+len(label)+len(data))
	binary.LittleEndian.PutUint32(body[0:4], uint32(len(label)))
	binary.LittleEndian.PutUint32(body[4:8], uint32(len(data)))
	copy(body[8:], label)
	copy(body[8+len(label):], data)
	return body
}
