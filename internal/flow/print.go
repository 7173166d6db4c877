package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"authflow/internal/client"
)

const rule = "--------------------"

// printResponse writes the status and body of a call. JSON bodies are
// re-indented with two spaces, keeping the server's key order; anything else
// is printed as received.
func printResponse(w io.Writer, resp *client.Response, action string) {
	fmt.Fprintf(w, "--- %s ---\n", action)
	fmt.Fprintf(w, "Status Code: %d\n", resp.StatusCode)
	fmt.Fprintf(w, "Response: %s\n", formatBody(resp.Body))
	fmt.Fprintln(w, rule)
}

func formatBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return string(body)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(body)
	}
	return strings.TrimRight(buf.String(), "\n")
}
