// SPDX-License-Identifier: MIT

package links

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Status is the liveness of a list entry.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	// StatusChecking is shown by interactive front-ends while a check is in
	// flight. It is never written by the batch run.
	StatusChecking Status = "checking"
)

// Persistable reports whether s may be written to the list file.
func (s Status) Persistable() bool {
	return s == StatusOnline || s == StatusOffline
}

// StatusOf maps a liveness verdict onto a persistable status.
func StatusOf(live bool) Status {
	if live {
		return StatusOnline
	}
	return StatusOffline
}

// member is one key/value pair of an entry object, kept in input order.
type member struct {
	key   string
	value json.RawMessage
}

// Entry is one element of the list file.
//
// Members other than status are carried through verbatim and in their
// original order; a decoded entry re-encodes to the same object with only
// status changed (replaced in place, or appended when it was absent).
type Entry struct {
	Name   string
	URL    string
	Status Status

	members []member
	urlErr  error
}

// NewEntry builds an entry that has no extra members.
func NewEntry(name, url string) Entry {
	return Entry{Name: name, URL: url}
}

var errNotObject = errors.New("entry is not a JSON object")

// ErrURLNotString marks an entry whose url member is present but is not a
// JSON string. The entry stays in the list and is reported offline.
var ErrURLNotString = errors.New("url is not a string")

// URLErr reports why the entry's url member could not be read, or nil.
func (e Entry) URLErr() error {
	return e.urlErr
}

// UnmarshalJSON decodes an entry object, preserving member order.
func (e *Entry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	out := Entry{members: []member{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("member %q: %w", key, err)
		}

		switch key {
		case "name":
			out.Name, _ = stringValue(raw)
		case "url":
			s, ok := stringValue(raw)
			out.URL = s
			out.urlErr = nil
			if !ok {
				out.urlErr = fmt.Errorf("%w: %s", ErrURLNotString, bytes.TrimSpace(raw))
			}
		case "status":
			s, _ := stringValue(raw)
			out.Status = Status(s)
		}
		out.setMember(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = out
	return nil
}

// setMember replaces the value of an existing key in place; a repeated key
// keeps its first position and its last value.
func (e *Entry) setMember(key string, value json.RawMessage) {
	for i := range e.members {
		if e.members[i].key == key {
			e.members[i].value = value
			return
		}
	}
	e.members = append(e.members, member{key: key, value: value})
}

// MarshalJSON encodes the entry with its original member order.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.members == nil {
		return marshal(struct {
			Name   string `json:"name"`
			URL    string `json:"url"`
			Status Status `json:"status,omitempty"`
		}{e.Name, e.URL, e.Status})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	wroteStatus := false
	for i, m := range e.members {
		if i > 0 {
			buf.WriteByte(',')
		}
		value := m.value
		if m.key == "status" && e.Status != "" {
			value = mustString(string(e.Status))
			wroteStatus = true
		}
		buf.Write(mustString(m.key))
		buf.WriteByte(':')
		buf.Write(value)
	}
	if !wroteStatus && e.Status != "" {
		if len(e.members) > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"status":`)
		buf.Write(mustString(string(e.Status)))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// stringValue decodes raw when it is a JSON string. null is not a string.
func stringValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func mustString(s string) []byte {
	b, _ := marshal(s) // strings always marshal
	return b
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
