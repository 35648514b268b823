package sanitize

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

var (
	// ErrMalformedLine is reported for lines that are not a valid training example.
	ErrMalformedLine = errors.New("malformed line")
)

// Stats summarizes a dataset cleaning pass.
type Stats struct {
	// Processed counts lines written to the output
	Processed int
	// Skipped counts malformed lines that were dropped
	Skipped int
	// Changed counts written lines whose content was rewritten
	Changed int
}

// CleanDataset reads JSON Lines training examples from r, rewrites the content of
// every message with CleanText, and writes each example as one compact JSON line
// to w. Other fields are kept as they are. Malformed lines are logged and dropped.
// Only read and write errors abort the pass.
func CleanDataset(r io.Reader, w io.Writer) (Stats, error) {
	logger := slog.Default().With("component", "sanitize")
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	var stats Stats
	for lineNum := 1; ; lineNum++ {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return stats, fmt.Errorf("reading line %d: %w", lineNum, readErr)
		}
		if len(line) == 0 && errors.Is(readErr, io.EOF) {
			break
		}

		out, changed, err := cleanLine(bytes.TrimSpace(line))
		if err != nil {
			logger.Warn("skipping line", "line", lineNum, "err", err)
			stats.Skipped++
		} else {
			if _, err := writer.Write(append(out, '\n')); err != nil {
				return stats, fmt.Errorf("writing line %d: %w", lineNum, err)
			}
			stats.Processed++
			if changed {
				stats.Changed++
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
	}

	if err := writer.Flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// cleanLine rewrites one example. It reports whether any content changed.
func cleanLine(line []byte) ([]byte, bool, error) {
	var example object
	if err := json.Unmarshal(line, &example); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}

	changed := false
	if raw, ok := example.get("messages"); ok {
		var messages []object
		if err := json.Unmarshal(raw, &messages); err != nil {
			return nil, false, fmt.Errorf("%w: messages: %w", ErrMalformedLine, err)
		}

		for i, msg := range messages {
			rawContent, ok := msg.get("content")
			if !ok {
				continue
			}
			var content string
			if err := json.Unmarshal(rawContent, &content); err != nil {
				return nil, false, fmt.Errorf("%w: messages[%d].content is not a string", ErrMalformedLine, i)
			}

			cleaned := CleanText(content)
			if cleaned == content {
				continue
			}
			encoded, err := marshalNoEscape(cleaned)
			if err != nil {
				return nil, false, err
			}
			msg.set("content", encoded)
			changed = true
		}

		if changed {
			encoded, err := marshalNoEscape(messages)
			if err != nil {
				return nil, false, err
			}
			example.set("messages", encoded)
		}
	}

	out, err := marshalNoEscape(example)
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

// CleanFile cleans the dataset at inPath into outPath.
func CleanFile(inPath, outPath string) (Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return Stats{}, err
	}

	stats, err := CleanDataset(in, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return stats, err
}
