package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lox/blackjackviz/internal/blackjack"
	"github.com/lox/blackjackviz/internal/fileutil"
)

// Load reads and validates a trace file.
func Load(path string) (*File, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Decode parses a trace from r. Unknown keys are rejected so typos in
// hand-written traces surface early.
func Decode(r io.Reader) (*File, error) {
	var file File
	md, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("trace: unknown keys: %s", strings.Join(keys, ", "))
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Encode writes the trace to w in TOML format.
func Encode(w io.Writer, file *File) error {
	if file == nil {
		return errors.New("trace: file is nil")
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(file)
}

// Save writes the trace to path atomically, replacing any existing file.
func Save(path string, file *File) error {
	return fileutil.WriteAtomic(filepath.Clean(path), 0o644, func(w io.Writer) error {
		return Encode(w, file)
	})
}

// Validate checks every episode in the file.
func (f *File) Validate() error {
	for i, ep := range f.Episodes {
		if err := ep.Validate(); err != nil {
			return fmt.Errorf("trace: episode %d: %w", i+1, err)
		}
	}
	return nil
}

// Validate checks the observations of an episode and that a stand, if any,
// ends it.
func (e Episode) Validate() error {
	if err := e.Initial.Validate(); err != nil {
		return fmt.Errorf("initial: %w", err)
	}
	for i, s := range e.Steps {
		if s.Action != blackjack.Hit && s.Action != blackjack.Stand {
			return fmt.Errorf("step %d: unknown action %d", i+1, int(s.Action))
		}
		if s.Action == blackjack.Stand && i != len(e.Steps)-1 {
			return fmt.Errorf("step %d: stand must be the last step", i+1)
		}
		if err := s.Observation().Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}
