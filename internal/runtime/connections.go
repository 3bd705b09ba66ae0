package runtime

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/pkg/dbclient"
)

// ConnectionRecord is a named, persisted connection target. Only the DSN
// is kept; live pooled handles are re-established per process, the same
// way a CLI re-opens a file descriptor rather than keeping one warm across
// invocations.
type ConnectionRecord struct {
	Name    string
	DSN     string
	Kind    dbclient.Kind
	AddedAt time.Time
}

// ConnectionSet tracks named connection targets (the `connect`/`use`/
// `connections` CLI surface of spec.md §6) and the live clients opened
// against them within this process.
type ConnectionSet struct {
	mu      sync.Mutex
	path    string
	records map[string]ConnectionRecord
	active  string
	live    map[string]dbclient.Client
}

type connectionFile struct {
	Records map[string]ConnectionRecord
	Active  string
}

// NewConnectionSet loads the persisted connection registry from path, if
// it exists, starting empty otherwise (mirrors vectorstore.LoadSnapshot's
// absent-file-is-empty convention).
func NewConnectionSet(path string) *ConnectionSet {
	cs := &ConnectionSet{
		path:    path,
		records: make(map[string]ConnectionRecord),
		live:    make(map[string]dbclient.Client),
	}
	cs.load()
	return cs
}

func (cs *ConnectionSet) load() {
	f, err := os.Open(cs.path)
	if err != nil {
		return
	}
	defer f.Close()

	var file connectionFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return
	}
	cs.records = file.Records
	cs.active = file.Active
	if cs.records == nil {
		cs.records = make(map[string]ConnectionRecord)
	}
}

func (cs *ConnectionSet) saveLocked() error {
	tmp := cs.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(connectionFile{Records: cs.records, Active: cs.active}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, cs.path)
}

// Add registers name -> dsn, overwriting any prior record under that name.
func (cs *ConnectionSet) Add(name, dsn string, kind dbclient.Kind) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.records[name] = ConnectionRecord{Name: name, DSN: dsn, Kind: kind, AddedAt: time.Now()}
	if cs.active == "" {
		cs.active = name
	}
	return cs.saveLocked()
}

// Remove forgets name and closes its live client, if any.
func (cs *ConnectionSet) Remove(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.records[name]; !ok {
		return apperr.New(apperr.KindNotFound, "connections.remove", fmt.Sprintf("no connection named %q", name))
	}
	if client, ok := cs.live[name]; ok {
		client.Close()
		delete(cs.live, name)
	}
	delete(cs.records, name)
	if cs.active == name {
		cs.active = ""
	}
	return cs.saveLocked()
}

// Use switches the active connection name.
func (cs *ConnectionSet) Use(name string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.records[name]; !ok {
		return apperr.New(apperr.KindNotFound, "connections.use", fmt.Sprintf("no connection named %q", name))
	}
	cs.active = name
	return cs.saveLocked()
}

// Active returns the name of the active connection, or "" if none is set.
func (cs *ConnectionSet) Active() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.active
}

// Names lists every registered connection name, sorted.
func (cs *ConnectionSet) Names() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	names := make([]string, 0, len(cs.records))
	for n := range cs.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Record returns the named connection record, if registered.
func (cs *ConnectionSet) Record(name string) (ConnectionRecord, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	r, ok := cs.records[name]
	return r, ok
}

// Records returns a copy of every registered connection record.
func (cs *ConnectionSet) Records() []ConnectionRecord {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]ConnectionRecord, 0, len(cs.records))
	for _, r := range cs.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Client opens (or reuses, within this process) the dbclient.Client for
// name, via registry.
func (cs *ConnectionSet) Client(ctx context.Context, registry *dbclient.Registry, name string) (dbclient.Client, error) {
	cs.mu.Lock()
	rec, ok := cs.records[name]
	if client, live := cs.live[name]; ok && live {
		cs.mu.Unlock()
		return client, nil
	}
	cs.mu.Unlock()

	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "connections.client", fmt.Sprintf("no connection named %q", name))
	}

	parsed, err := dbclient.ParseDSN(rec.DSN)
	if err != nil {
		return nil, err
	}
	client, err := registry.Connect(ctx, parsed.Raw, dbclient.DefaultOptions())
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	cs.live[name] = client
	cs.mu.Unlock()
	return client, nil
}

// CloseAll closes every live client opened during this process's lifetime.
func (cs *ConnectionSet) CloseAll() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var firstErr error
	for name, client := range cs.live {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(cs.live, name)
	}
	return firstErr
}
