// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package body

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// nsStringClass precedes the archived string in an attributedBody blob.
var nsStringClass = []byte("NSString")

// classToPayload is the number of bytes between the class name and the
// length prefix of the string.
const classToPayload = 5

// Length prefix tags used by typedstream for values that do not fit in
// one byte.
const (
	tagInt16 = 0x81
	tagInt32 = 0x82
)

// DecodeAttributedBody returns the plain string archived in an
// NSAttributedString typedstream blob.
func DecodeAttributedBody(blob []byte) (string, error) {
	idx := bytes.Index(blob, nsStringClass)
	if idx < 0 {
		return "", fmt.Errorf("%w: no NSString in attributedBody", ErrUndecodable)
	}
	rest := blob[idx+len(nsStringClass):]
	if len(rest) < classToPayload+1 {
		return "", fmt.Errorf("%w: truncated attributedBody", ErrUndecodable)
	}
	rest = rest[classToPayload:]

	var (
		length int
		start  int
	)
	switch rest[0] {
	case tagInt16:
		if len(rest) < 3 {
			return "", fmt.Errorf("%w: truncated length", ErrUndecodable)
		}
		length = int(binary.LittleEndian.Uint16(rest[1:3]))
		start = 3
	case tagInt32:
		if len(rest) < 5 {
			return "", fmt.Errorf("%w: truncated length", ErrUndecodable)
		}
		length = int(binary.LittleEndian.Uint32(rest[1:5]))
		start = 5
	default:
		length = int(rest[0])
		start = 1
	}

	if length < 0 || start+length > len(rest) {
		return "", fmt.Errorf("%w: string length %d exceeds body", ErrUndecodable, length)
	}
	text := rest[start : start+length]
	if !utf8.Valid(text) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrUndecodable)
	}
	return string(text), nil
}
