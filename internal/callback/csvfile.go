package callback

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// csvFile writes ';' separated rows to <name>.csv.tmp and renames it to
// <name>-<start>-<end>.csv on commit.
type csvFile struct {
	dir  string
	name string
	f    *os.File
	buf  *bufio.Writer
	w    *csv.Writer
	rows uint64
	done bool
}

func createCSV(dir, name string) (*csvFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir %s: %w", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, name+".csv.tmp"))
	if err != nil {
		return nil, fmt.Errorf("create %s csv: %w", name, err)
	}
	buf := bufio.NewWriterSize(f, csvBufferSize)
	w := csv.NewWriter(buf)
	w.Comma = ';'
	return &csvFile{dir: dir, name: name, f: f, buf: buf, w: w}, nil
}

func (c *csvFile) write(record ...string) error {
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("write %s row: %w", c.name, err)
	}
	c.rows++
	return nil
}

func (c *csvFile) tmpPath() string {
	return filepath.Join(c.dir, c.name+".csv.tmp")
}

// finalPath is where commit moves the file.
func (c *csvFile) finalPath(start, end uint64) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s-%d-%d.csv", c.name, start, end))
}

func (c *csvFile) commit(start, end uint64) (string, error) {
	if err := c.close(); err != nil {
		return "", err
	}
	path := c.finalPath(start, end)
	if err := os.Rename(c.tmpPath(), path); err != nil {
		return "", fmt.Errorf("rename %s csv: %w", c.name, err)
	}
	return path, nil
}

// close flushes and closes the file, leaving it under its temporary name.
func (c *csvFile) close() error {
	if c.done {
		return nil
	}
	c.done = true

	c.w.Flush()
	err := c.w.Error()
	if err == nil {
		err = c.buf.Flush()
	}
	if closeErr := c.f.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("close %s csv: %w", c.name, err)
	}
	return nil
}

// closeAll closes every file that was not committed.
func closeAll(files ...*csvFile) error {
	var err error
	for _, f := range files {
		if f != nil {
			err = errors.Join(err, f.close())
		}
	}
	return err
}
