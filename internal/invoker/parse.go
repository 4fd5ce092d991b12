package invoker

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// cliResult is the JSON output of `claude -p --output-format json`.
type cliResult struct {
	Type      string  `json:"type"`
	Subtype   string  `json:"subtype"`
	IsError   bool    `json:"is_error"`
	Result    string  `json:"result"`
	SessionID string  `json:"session_id"`
	CostUSD   float64 `json:"total_cost_usd"`
}

// parseResult extracts the reply from the CLI's stdout. The output is
// normally a single JSON object, but verbose diagnostics can intersperse
// non-JSON lines, so a line-by-line fallback is kept.
func parseResult(data []byte) (reply, sessionID string, costUSD float64, err error) {
	res := decodeStream(data)
	if res == nil {
		res = decodeLines(data)
	}
	if res == nil {
		preview := string(data)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		return "", "", 0, fmt.Errorf("no valid JSON object in output (%d bytes): %s", len(data), preview)
	}
	if res.IsError {
		return "", "", 0, fmt.Errorf("assistant reported error: %s", res.Result)
	}
	return res.Result, res.SessionID, res.CostUSD, nil
}

// decodeStream parses concatenated JSON objects, preferring a "result" object.
func decodeStream(data []byte) *cliResult {
	dec := json.NewDecoder(bytes.NewReader(data))
	var best, last *cliResult
	for dec.More() {
		var raw cliResult
		if err := dec.Decode(&raw); err != nil {
			break
		}
		last = &raw
		if raw.Type == "result" || raw.Result != "" {
			best = &raw
		}
	}
	if best != nil {
		return best
	}
	return last
}

// decodeLines is the fallback for output with non-JSON lines mixed in.
func decodeLines(data []byte) *cliResult {
	var best, last *cliResult
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var raw cliResult
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}
		last = &raw
		if raw.Type == "result" || raw.Result != "" {
			best = &raw
		}
	}
	if best != nil {
		return best
	}
	return last
}
