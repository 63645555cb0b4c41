// internal/writers/protocol.go
package writers

import (
	"fmt"
	"io"

	"dirtywater-core/protocol"
	"dirtywater-core/reaction"

	"dirtywater/internal/jsonutil"
	"dirtywater/pkg/api"
)

// Document is what the CLI hands to a writer. Reaction is optional and only
// used by structured formats.
type Document struct {
	Protocol *protocol.Protocol
	Reaction *reaction.Reaction
}

func init() {
	RegisterProtocol("text", writeText)
	RegisterProtocol("json", writeJSON)
}

func writeText(w io.Writer, doc Document) error {
	_, err := fmt.Fprintln(w, doc.Protocol.Render())
	return err
}

func writeJSON(w io.Writer, doc Document) error {
	return jsonutil.EncodePretty(w, ToAPI(doc))
}

// ToAPI converts doc into the v1 wire schema.
func ToAPI(doc Document) api.ProtocolV1 {
	out := api.ProtocolV1{Steps: []api.StepV1{}}
	i := 0
	for s := range doc.Protocol.All() {
		i++
		out.Steps = append(out.Steps, api.StepV1{Number: i, Text: s})
	}
	if doc.Reaction == nil {
		return out
	}
	for r := range doc.Reaction.All() {
		out.Reagents = append(out.Reagents, api.ReagentV1{
			Name:      r.Name,
			Volume:    r.Volume.String(),
			Stock:     r.Stock.String(),
			Final:     r.Final.String(),
			Total:     doc.Reaction.Total(r).String(),
			MasterMix: r.MasterMix,
		})
	}
	return out
}
