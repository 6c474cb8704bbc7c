package logfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

// Load parses the JSON-lines log at path. Any malformed line fails the whole
// load; the returned set has every record selected.
func Load(path string) (*RecordSet, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	rs, err := read(file)
	if err != nil {
		return nil, err
	}
	rs.path = path
	return rs, nil
}

func read(r io.Reader) (*RecordSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	rs := &RecordSet{}
	seen := make(map[string]bool)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		keys, fields, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Err: err}
		}
		rec, err := newRecord(fields)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Err: err}
		}
		if len(rs.records) > 0 && rs.records[0].asctime.numeric != rec.asctime.numeric {
			return nil, &ParseError{Line: lineNum, Err: errors.New("asctime mixes text and numeric values")}
		}

		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				rs.columns = append(rs.columns, key)
			}
		}
		rs.records = append(rs.records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log at line %d: %w", lineNum, err)
	}

	slices.SortStableFunc(rs.records, func(a, b Record) int {
		return b.asctime.compare(a.asctime)
	})
	rs.selected = make([]bool, len(rs.records))
	rs.SelectAll()
	return rs, nil
}

func newRecord(fields map[string]any) (Record, error) {
	for _, name := range []string{FieldAsctime, FieldLevel, FieldProcess, FieldMessage} {
		if v, ok := fields[name]; !ok || v == nil {
			return Record{}, fmt.Errorf("missing required field %q", name)
		}
	}

	level, ok := fields[FieldLevel].(string)
	if !ok || !IsLevel(level) {
		return Record{}, fmt.Errorf("unknown levelname %v", fields[FieldLevel])
	}

	var ts stamp
	switch v := fields[FieldAsctime].(type) {
	case string:
		ts = stamp{text: v}
	case int64:
		ts = stamp{text: FormatValue(v), num: float64(v), numeric: true}
	case float64:
		ts = stamp{text: FormatValue(v), num: v, numeric: true}
	default:
		return Record{}, fmt.Errorf("asctime must be a string or number, got %v", v)
	}

	return Record{
		fields:  fields,
		asctime: ts,
		level:   level,
		process: FormatValue(fields[FieldProcess]),
	}, nil
}

// parseLine decodes a flat JSON object, keeping key order.
func parseLine(line []byte) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.New("not a JSON object")
	}

	var keys []string
	fields := make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.New("invalid JSON: expected object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON value for %q: %w", key, err)
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON value for %q: %w", key, err)
		}
		if _, dup := fields[key]; !dup {
			keys = append(keys, key)
		}
		fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.New("trailing data after JSON object")
	}
	return keys, fields, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case 'n':
		return nil, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return buf.String(), nil
	default:
		num := json.Number(raw)
		if i, err := num.Int64(); err == nil {
			return i, nil
		}
		f, err := num.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}
