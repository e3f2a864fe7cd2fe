package widget

import (
	"os"
	"path/filepath"
)

// FileSink is an instance that writes every frame to a file, for status bars
// and scripts that poll it.
type FileSink struct {
	id    string
	path  string
	width int
}

// NewFileSink returns a sink writing to path. A zero width keeps the width
// frames arrive with.
func NewFileSink(id, path string, width int) *FileSink {
	return &FileSink{id: id, path: filepath.Clean(path), width: width}
}

func (f *FileSink) ID() string   { return f.id }
func (f *FileSink) Kind() string { return "file" }
func (f *FileSink) Path() string { return f.path }

// Draw replaces the file atomically so readers never see half a frame.
func (f *FileSink) Draw(frame Frame) error {
	frame = frame.Resize(f.width)
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".widget-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(frame.Text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
