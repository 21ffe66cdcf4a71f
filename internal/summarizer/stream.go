package summarizer

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// readStream concatenates textResponse pieces from an NDJSON body. Lines may
// carry a "data: " prefix; undecodable lines are skipped and a close marker
// ends the stream.
func readStream(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := strings.TrimPrefix(sc.Text(), "data: ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var piece chatResponse
		if err := json.Unmarshal([]byte(line), &piece); err != nil {
			continue
		}
		b.WriteString(piece.TextResponse)
		if piece.Close {
			return b.String(), nil
		}
	}
	return b.String(), sc.Err()
}
