// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"
)

// ProtocolWriters maps an output format to its handler. Formats register
// themselves in init() blocks; last registration wins.
var ProtocolWriters = map[string]func(w io.Writer, doc Document) error{}

func RegisterProtocol(format string, fn func(io.Writer, Document) error) {
	ProtocolWriters[format] = fn
}

// WriteProtocol dispatches doc to the writer registered for format.
func WriteProtocol(format string, w io.Writer, doc Document) error {
	fn, ok := ProtocolWriters[format]
	if !ok {
		return fmt.Errorf("unknown output format %q (no writer registered)", format)
	}
	return fn(w, doc)
}

// Formats lists registered format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(ProtocolWriters))
	for k := range ProtocolWriters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
