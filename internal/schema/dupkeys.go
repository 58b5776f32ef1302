package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RejectDuplicateKeys reports an error if raw, parsed as a JSON value graph,
// contains the same object key twice at any nesting level.
// encoding/json.Unmarshal silently keeps the last occurrence of a duplicate
// key, which would let an LLM-produced payload smuggle a shadowed field past
// every other check, so duplicate keys must be rejected explicitly before
// the payload is unmarshaled into a Go struct.
func RejectDuplicateKeys(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	_, err := walkNoDup(dec)
	return err
}

// walkNoDup consumes exactly one JSON value (scalar, array, or object) from
// dec, returning an error the first time an object repeats a key at any
// depth reached during the walk.
func walkNoDup(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			seen := make(map[string]bool)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				if seen[key] {
					return nil, fmt.Errorf("duplicate key %q", key)
				}
				seen[key] = true
				if _, err := walkNoDup(dec); err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return t, nil
		case '[':
			for dec.More() {
				if _, err := walkNoDup(dec); err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return t, nil
		}
	}
	return tok, nil
}
