package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-cfm/models"
)

// JSONWriter writes a snapshot as an indented JSON document, replacing any previous file.
type JSONWriter struct {
	filename string
	mu       sync.Mutex
}

// NewJSONWriter returns a writer for filename. Nothing is touched until Write.
func NewJSONWriter(filename string) *JSONWriter {
	return &JSONWriter{filename: filename}
}

// Filename is the destination path.
func (jw *JSONWriter) Filename() string {
	return jw.filename
}

// Write creates parent directories and overwrites the file with snapshot.
func (jw *JSONWriter) Write(snapshot *models.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := ensureDir(jw.filename); err != nil {
		return err
	}

	f, err := os.Create(jw.filename)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(snapshot); err != nil {
		f.Close()
		return fmt.Errorf("encode json snapshot: %w", err)
	}
	if err := buffer.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return f.Close()
}

// Validate ensures the JSON file exists and has data.
func (jw *JSONWriter) Validate() error {
	info, err := os.Stat(jw.filename)
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
