package loan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ItemInfoVersion is the only item info encoding currently understood.
const ItemInfoVersion = 1

var ErrMalformedItemInfo = errors.New("malformed item info")

// ItemInfo is the free-form bibliographic description attached to ILL requests
// (title, authors, isbn, ...).
type ItemInfo struct {
	Version int               `json:"version"`
	Fields  map[string]string `json:"fields"`
}

// Get returns a field value or "".
func (i ItemInfo) Get(key string) string {
	if i.Fields == nil {
		return ""
	}
	return i.Fields[key]
}

// ParseItemInfo decodes a stored item info blob. Unknown keys, a wrong version and
// trailing data are rejected.
func ParseItemInfo(raw string) (ItemInfo, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var info ItemInfo
	if err := dec.Decode(&info); err != nil {
		return ItemInfo{}, fmt.Errorf("%w: %v", ErrMalformedItemInfo, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return ItemInfo{}, fmt.Errorf("%w: trailing data", ErrMalformedItemInfo)
	}
	if info.Version != ItemInfoVersion {
		return ItemInfo{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedItemInfo, info.Version)
	}
	if info.Fields == nil {
		return ItemInfo{}, fmt.Errorf("%w: missing fields", ErrMalformedItemInfo)
	}
	return info, nil
}

// Encode serializes the item info in its storage form.
func (i ItemInfo) Encode() (string, error) {
	if i.Version == 0 {
		i.Version = ItemInfoVersion
	}
	if i.Fields == nil {
		i.Fields = map[string]string{}
	}
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("error encoding item info: %w", err)
	}
	return string(b), nil
}
