package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ugorji/go/codec"
)

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}

// ReadJSON decodes a document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("export: json: %w", err)
	}
	return &doc, nil
}

// msgpackHandle encodes structs as maps keyed by their json tag names.
func msgpackHandle() *codec.MsgpackHandle {
	return &codec.MsgpackHandle{}
}

// WriteMsgpack writes doc as msgpack.
func WriteMsgpack(w io.Writer, doc *Document) error {
	if err := codec.NewEncoder(w, msgpackHandle()).Encode(doc); err != nil {
		return fmt.Errorf("export: msgpack: %w", err)
	}
	return nil
}

// ReadMsgpack decodes a document written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*Document, error) {
	var doc Document
	if err := codec.NewDecoder(r, msgpackHandle()).Decode(&doc); err != nil {
		return nil, fmt.Errorf("export: msgpack: %w", err)
	}
	return &doc, nil
}
