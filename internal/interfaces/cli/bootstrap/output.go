package bootstrap

import (
	"encoding/json"
	"io"
)

// PrintJSON writes v as indented JSON, the output format of every admin
// command.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
