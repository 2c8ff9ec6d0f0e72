package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/oicur0t/logl-check/pkg/models"
)

// Stream is one monitored log: the current file plus, optionally, a pattern
// for the names of its rotated siblings in the same directory.
type Stream struct {
	Path    string
	Rotated *regexp.Regexp
}

// File is a candidate log file with the metadata used for resolution.
type File struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Plan lists the files to scan oldest first, with the current file last.
// Lines up to ResumeLine in the first file were handled by a previous run.
type Plan struct {
	Files      []File
	ResumeLine int64
}

// Current returns the stream's current file, always the last in the plan.
func (p Plan) Current() File {
	return p.Files[len(p.Files)-1]
}

// timePrecision is the finest resolution every state codec round-trips
// (BSON datetimes are milliseconds).
const timePrecision = time.Millisecond

// Resolve works out which files of the stream hold content not yet seen
// by the run recorded in prior.
func Resolve(stream Stream, prior models.StreamState) (Plan, error) {
	current, err := statFile(stream.Path)
	if err != nil {
		return Plan{}, err
	}

	if prior.Fresh() {
		return Plan{Files: []File{current}}, nil
	}

	rotated, err := discoverRotated(stream)
	if err != nil {
		return Plan{}, err
	}

	// Newest first, with the current file always leading.
	candidates := append([]File{current}, rotated...)

	since := prior.Modified.Truncate(timePrecision)
	resume := -1
	for i, f := range candidates {
		if f.ModTime.Truncate(timePrecision).Before(since) {
			break
		}
		resume = i
	}

	if resume < 0 {
		// The file of the previous run is gone: scan everything.
		return Plan{Files: reversed(candidates)}, nil
	}

	plan := Plan{
		Files:      reversed(candidates[:resume+1]),
		ResumeLine: prior.LineNumber,
	}
	if resume == 0 && current.Size < prior.Size {
		// Truncated in place.
		plan.ResumeLine = 0
	}
	return plan, nil
}

// discoverRotated returns the stream's rotated siblings, newest first.
func discoverRotated(stream Stream) ([]File, error) {
	if stream.Rotated == nil {
		return nil, nil
	}

	dir := filepath.Dir(stream.Path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &Error{Op: "list directory", Path: dir, Err: err}
	}

	self := filepath.Base(stream.Path)
	var files []File
	for _, entry := range entries {
		name := entry.Name()
		if name == self || !stream.Rotated.MatchString(name) {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		f, err := statFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Path < files[j].Path
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

func statFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, &Error{Op: "stat", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return File{}, &Error{Op: "stat", Path: path, Err: errors.New("not a regular file")}
	}
	return File{Path: path, ModTime: info.ModTime(), Size: info.Size()}, nil
}

func reversed(files []File) []File {
	out := make([]File, len(files))
	for i, f := range files {
		out[len(files)-1-i] = f
	}
	return out
}
