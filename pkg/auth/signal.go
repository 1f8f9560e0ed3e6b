package auth

import (
	"os"
)

// Signal is the operator's out-of-band "challenge resolved" flag
type Signal interface {
	// Present reports whether the operator has raised the flag
	Present() bool
	// Consume lowers the flag so it cannot satisfy a later challenge
	Consume() error
	String() string
}

// FileSignal is raised by creating a file
type FileSignal struct {
	Path string
}

// NewFileSignal creates a sentinel file signal
func NewFileSignal(path string) *FileSignal {
	return &FileSignal{Path: path}
}

func (f *FileSignal) Present() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}

func (f *FileSignal) Consume() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Raise creates the sentinel file
func (f *FileSignal) Raise() error {
	return os.WriteFile(f.Path, []byte("continue\n"), 0644)
}

func (f *FileSignal) String() string {
	return f.Path
}
