package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

// CSVStore keeps one file per walk, <identity>_<n>.csv, each with a t,value
// header. Headerless <identity><n>.txt walks recorded by the older door
// firmware are read as well but never written.
type CSVStore struct {
	dir string
	mu  sync.Mutex
}

// NewCSVStore creates dir if needed.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating dataset dir %s", dir)
	}
	return &CSVStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *CSVStore) Dir() string { return s.dir }

// legacyName matches me0.txt, guest12.txt.
var legacyName = regexp.MustCompile(`^([A-Za-z0-9_-]*[A-Za-z_-])([0-9]+)\.txt$`)

type walkFile struct {
	identity string
	index    int
	path     string
	legacy   bool
}

func parseWalkName(name string) (walkFile, bool) {
	if m := legacyName.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil || checkIdentity(m[1]) != nil {
			return walkFile{}, false
		}
		return walkFile{identity: m[1], index: n, legacy: true}, true
	}
	if !strings.HasSuffix(name, ".csv") {
		return walkFile{}, false
	}
	stem := strings.TrimSuffix(name, ".csv")
	cut := strings.LastIndex(stem, "_")
	if cut <= 0 {
		return walkFile{}, false
	}
	n, err := strconv.Atoi(stem[cut+1:])
	if err != nil {
		return walkFile{}, false
	}
	return walkFile{identity: stem[:cut], index: n}, true
}

func (s *CSVStore) scan() ([]walkFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.dir)
	}
	var files []walkFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		wf, ok := parseWalkName(e.Name())
		if !ok {
			continue
		}
		wf.path = filepath.Join(s.dir, e.Name())
		files = append(files, wf)
	}
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.identity != b.identity {
			return a.identity < b.identity
		}
		if a.legacy != b.legacy {
			return a.legacy
		}
		return a.index < b.index
	})
	return files, nil
}

func (s *CSVStore) Append(_ context.Context, identity string, walk imu.Batch) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.scan()
	if err != nil {
		return err
	}
	next := 1
	for _, f := range files {
		if f.identity == identity && !f.legacy && f.index >= next {
			next = f.index + 1
		}
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%d.csv", identity, next))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	rows := []imu.Sample(walk)
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

func (s *CSVStore) Load(_ context.Context, identity string) ([]imu.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.scan()
	if err != nil {
		return nil, err
	}
	var out []imu.Batch
	for _, wf := range files {
		if wf.identity != identity {
			continue
		}
		walk, err := readWalk(wf)
		if err != nil {
			return nil, err
		}
		out = append(out, walk)
	}
	return out, nil
}

func readWalk(wf walkFile) (imu.Batch, error) {
	f, err := os.Open(wf.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", wf.path)
	}
	defer f.Close()

	var rows []imu.Sample
	if wf.legacy {
		err = gocsv.UnmarshalWithoutHeaders(f, &rows)
	} else {
		err = gocsv.UnmarshalFile(f, &rows)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", wf.path)
	}
	return imu.Batch(rows), nil
}

func (s *CSVStore) Identities(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.scan()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, f := range files {
		if len(ids) == 0 || ids[len(ids)-1] != f.identity {
			ids = append(ids, f.identity)
		}
	}
	return ids, nil
}

func (s *CSVStore) Clear(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.scan()
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.identity != identity {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			return errors.Wrapf(err, "removing %s", f.path)
		}
	}
	return nil
}
