package staging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// encodeEnvelopes serializes envelopes as line-delimited JSON.
func encodeEnvelopes(records []RecordEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return nil, fmt.Errorf("encode envelope %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// decodeEnvelopes parses line-delimited JSON envelopes.
func decodeEnvelopes(data []byte) ([]RecordEnvelope, error) {
	var records []RecordEnvelope
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var env RecordEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode envelope line %d: %w", line, err)
		}
		records = append(records, env)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// envelopeSizeBytes estimates the serialized size of a batch.
func envelopeSizeBytes(records []RecordEnvelope) (int64, error) {
	var total int64
	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			return 0, fmt.Errorf("size envelope %d: %w", i, err)
		}
		total += int64(len(data)) + 1
	}
	return total, nil
}

// cloneEnvelopes copies the slice so callers cannot mutate staged data.
func cloneEnvelopes(records []RecordEnvelope) []RecordEnvelope {
	out := make([]RecordEnvelope, len(records))
	copy(out, records)
	return out
}
