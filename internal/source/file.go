package source

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
)

// File is a memory-mapped log file with a line offset index. It serves
// whole lines by number and can pick up growth for follow mode.
type File struct {
	reader  *mmap.ReaderAt
	size    int64
	path    string
	offsets []int64 // byte offset of each line start
}

// Open maps a file and indexes its line starts
func Open(path string) (*File, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	f := &File{
		reader:  reader,
		size:    info.Size(),
		path:    path,
		offsets: []int64{0},
	}
	if err := f.indexFrom(0); err != nil {
		reader.Close()
		return nil, err
	}
	return f, nil
}

// indexFrom scans [start, size) for newlines in chunks
func (f *File) indexFrom(start int64) error {
	const chunkSize = 64 * 1024
	buf := make([]byte, chunkSize)

	pos := start
	for pos < f.size {
		readSize := chunkSize
		if pos+int64(readSize) > f.size {
			readSize = int(f.size - pos)
		}

		n, err := f.reader.ReadAt(buf[:readSize], pos)
		if err != nil {
			return fmt.Errorf("index %s: %w", f.path, err)
		}

		chunk := buf[:n]
		offset := 0
		for {
			idx := bytes.IndexByte(chunk[offset:], '\n')
			if idx == -1 {
				break
			}
			lineStart := pos + int64(offset) + int64(idx) + 1
			if lineStart < f.size {
				f.offsets = append(f.offsets, lineStart)
			}
			offset += idx + 1
		}

		pos += int64(n)
	}
	return nil
}

// LineCount returns the number of indexed lines
func (f *File) LineCount() int {
	if f.size == 0 {
		return 0
	}
	return len(f.offsets)
}

// Line returns the text of line i without its trailing newline.
// Out-of-range indices return "" rather than an error.
func (f *File) Line(i int) (string, error) {
	if i < 0 || i >= f.LineCount() {
		return "", nil
	}

	start := f.offsets[i]
	end := f.size
	if i+1 < len(f.offsets) {
		end = f.offsets[i+1]
	}

	buf := make([]byte, end-start)
	if _, err := f.reader.ReadAt(buf, start); err != nil {
		return "", fmt.Errorf("read %s line %d: %w", f.path, i, err)
	}
	return string(bytes.TrimRight(buf, "\r\n")), nil
}

// Refresh remaps the file if it has grown and indexes the new region.
// Returns the number of newly indexed lines.
func (f *File) Refresh() (int, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0, err
	}
	if info.Size() <= f.size {
		return 0, nil
	}

	f.reader.Close()
	reader, err := mmap.Open(f.path)
	if err != nil {
		return 0, err
	}

	before := f.LineCount()
	f.reader = reader
	f.size = info.Size()

	// Rescan from the start of the final indexed line: its newline may not
	// have been seen yet, and everything after it is new.
	scanFrom := f.offsets[len(f.offsets)-1]
	if err := f.indexFrom(scanFrom); err != nil {
		return 0, err
	}

	return f.LineCount() - before, nil
}

// Path returns the file path
func (f *File) Path() string {
	return f.path
}

// Size returns the mapped size in bytes
func (f *File) Size() int64 {
	return f.size
}

// Close unmaps the file
func (f *File) Close() error {
	return f.reader.Close()
}
