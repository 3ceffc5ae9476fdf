package mtgjson

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/mod/semver"
)

// DecodeError reports a card or token entry that could not be decoded. The
// rest of its set is still read.
type DecodeError struct {
	Kind  Kind
	Set   string
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %d of set %s: %v", e.Kind, e.Index, e.Set, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Source is an opened MTGJSON export: an AllSets file or a directory of
// per-set files.
type Source struct {
	path  string
	isDir bool
}

// Open validates the input path.
func Open(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("invalid input file/directory: %w", err)
	}
	src := &Source{path: path, isDir: info.IsDir()}
	if src.isDir {
		slog.Info("Building using set files directory", "dir", path)
	} else {
		slog.Info("Building using AllSets file", "file", path)
	}
	return src, nil
}

// SetFile is one decoded set together with its undecoded cards and tokens.
type SetFile struct {
	Code string
	Set  *Set
}

// Sets streams the sets of the export one at a time. An error ends the
// sequence; it means the input itself is unusable.
func (s *Source) Sets() iter.Seq2[*SetFile, error] {
	if s.isDir {
		return s.dirSets()
	}
	return s.fileSets()
}

func (s *Source) fileSets() iter.Seq2[*SetFile, error] {
	return func(yield func(*SetFile, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				slog.Error("Failed to close input file", "file", s.path, "error", err)
			}
		}()

		dec := json.NewDecoder(bufio.NewReader(f))
		tok, err := dec.Token()
		if err != nil {
			yield(nil, fmt.Errorf("read %s: %w", s.path, err))
			return
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			yield(nil, fmt.Errorf("read %s: expected an object of sets", s.path))
			return
		}

		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				yield(nil, fmt.Errorf("read %s: %w", s.path, err))
				return
			}
			code, _ := tok.(string)

			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				yield(nil, fmt.Errorf("read set %s: %w", code, err))
				return
			}
			set, err := decodeSet(raw, code)
			if !yield(set, err) || err != nil {
				return
			}
		}
	}
}

func (s *Source) dirSets() iter.Seq2[*SetFile, error] {
	return func(yield func(*SetFile, error) bool) {
		entries, err := os.ReadDir(s.path)
		if err != nil {
			yield(nil, fmt.Errorf("read directory %s: %w", s.path, err))
			return
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			path, err := securejoin.SecureJoin(s.path, name)
			if err != nil {
				yield(nil, err)
				return
			}
			slog.Info("Loading set file", "file", name)
			raw, err := os.ReadFile(path)
			if err != nil {
				yield(nil, fmt.Errorf("read %s: %w", path, err))
				return
			}
			code := strings.TrimSuffix(name, filepath.Ext(name))
			set, err := decodeSet(raw, code)
			if !yield(set, err) || err != nil {
				return
			}
		}
	}
}

func decodeSet(raw []byte, fallbackCode string) (*SetFile, error) {
	var set Set
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("decode set %s: %w", fallbackCode, err)
	}
	if set.Code == "" {
		set.Code = fallbackCode
	}
	_ = CheckVersion(set.Code, set.Meta)
	return &SetFile{Code: set.Code, Set: &set}, nil
}

// Records yields the set itself, then its cards, then its tokens. Entries
// that fail to decode yield a *DecodeError and are skipped. Cards and tokens
// without a set code inherit the set's.
func (sf *SetFile) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if !yield(sf.Set, nil) {
			return
		}
		for i, raw := range sf.Set.Cards {
			var card Card
			if err := json.Unmarshal(raw, &card); err != nil {
				if !yield(nil, &DecodeError{Kind: KindCard, Set: sf.Code, Index: i, Err: err}) {
					return
				}
				continue
			}
			if card.SetCode == "" {
				card.SetCode = sf.Code
			}
			if !yield(&card, nil) {
				return
			}
		}
		for i, raw := range sf.Set.Tokens {
			var token Token
			if err := json.Unmarshal(raw, &token); err != nil {
				if !yield(nil, &DecodeError{Kind: KindToken, Set: sf.Code, Index: i, Err: err}) {
					return
				}
				continue
			}
			if token.SetCode == "" {
				token.SetCode = sf.Code
			}
			if !yield(&token, nil) {
				return
			}
		}
	}
}

// ErrUnsupportedVersion marks exports whose meta.version is not v4.
var ErrUnsupportedVersion = errors.New("unsupported MTGJSON version")

// CheckVersion warns when a set comes from an export that is not MTGJSON v4.
// Sets without version metadata are accepted silently.
func CheckVersion(code string, meta *Meta) error {
	if meta == nil || meta.Version == nil {
		return nil
	}
	v := *meta.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	// MTGJSON appends build metadata such as "4.6.2+20200110".
	v, _, _ = strings.Cut(v, "+")
	if !semver.IsValid(v) || semver.Major(v) != "v4" {
		slog.Warn("Set export version is not MTGJSON v4, columns may be missing", "set", code, "version", *meta.Version)
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, *meta.Version)
	}
	return nil
}
