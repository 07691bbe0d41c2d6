package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// dumps every exchange as <id>.http under a directory. the directory
// is emptied on construction so a run only ever contains its own
// exchanges.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	err := os.RemoveAll(dir)
	if err != nil {
		slog.Warn("failed to empty http dump directory", "dir", dir, "err", err)
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		slog.Warn("failed to create http dump directory", "dir", dir, "err", err)
	}
	return FilesystemOutput{directory: dir}
}

func (o FilesystemOutput) Write(id string, contents string) {
	path := filepath.Join(o.directory, fmt.Sprintf("%s.http", id))
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http dump", "path", path, "err", err)
	}
}
