package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// CurrentSchemaVersion is the format byte written by Encode.
	CurrentSchemaVersion = 2

	sessionFormatVersionV1 = 1

	maxFieldLength = 255
)

// Encode serialises s into the compact binary session format.
//
// Layout (v2): version byte, len-prefixed UserID, IssuedAt (int64 BE),
// LastSeenAt (int64 BE), len-prefixed Platform. The SessionID is the store
// key and is not part of the payload.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if s.UserID == "" {
		return nil, errors.New("userID required")
	}
	if len(s.UserID) > maxFieldLength {
		return nil, errors.New("userID too long")
	}
	if len(s.Platform) > maxFieldLength {
		return nil, errors.New("platform too long")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 1 + len(s.UserID) + 16 + 1 + len(s.Platform))

	buf.WriteByte(CurrentSchemaVersion)

	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if err := binary.Write(&buf, binary.BigEndian, s.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.LastSeenAt); err != nil {
		return nil, err
	}

	buf.WriteByte(byte(len(s.Platform)))
	buf.WriteString(s.Platform)

	return buf.Bytes(), nil
}

// Decode parses a payload produced by Encode. Version 1 payloads, which
// predate last-seen tracking, decode with LastSeenAt equal to IssuedAt and
// an empty Platform. Every decoding failure wraps ErrCorrupt.
func Decode(data []byte) (*Session, error) {
	s, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return s, nil
}

func decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion && version != sessionFormatVersionV1 {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	s := &Session{SchemaVersion: version}

	userID, err := readString(reader)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, errors.New("empty userID")
	}
	s.UserID = userID

	if err := binary.Read(reader, binary.BigEndian, &s.IssuedAt); err != nil {
		return nil, err
	}

	if version == sessionFormatVersionV1 {
		s.LastSeenAt = s.IssuedAt
	} else {
		if err := binary.Read(reader, binary.BigEndian, &s.LastSeenAt); err != nil {
			return nil, err
		}
		platform, err := readString(reader)
		if err != nil {
			return nil, err
		}
		s.Platform = platform
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes")
	}

	return s, nil
}

func readString(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", err
	}
	return string(b), nil
}
