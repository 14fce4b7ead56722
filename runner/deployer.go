package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/client"
	"github.com/flamesh/flame/config"
)

// deployerState is Runner's state machine (§4.7): built → uploaded →
// registered → active → torn_down.
type deployerState string

const (
	stateBuilt      deployerState = "built"
	stateUploaded   deployerState = "uploaded"
	stateRegistered deployerState = "registered"
	stateActive     deployerState = "active"
	stateTornDown   deployerState = "torn_down"
)

var ledgerBucket = []byte("flame-runner-ledger")

// Runner is the context-scoped application deployer (§4.7): packages the
// working directory, uploads it, registers a one-off application, and
// exposes proxy sessions over it, tearing everything down on Close.
type Runner struct {
	name string
	conn *client.Connection
	cfg  *config.Config

	storage *Storage
	ledger  *bbolt.DB

	mu        sync.Mutex
	state     deployerState
	appID     flame.ApplicationID
	archiveURL string
	sessions  []*client.Session
}

// Open packages dir, uploads it to conn's configured storage, and registers
// a new application named name (§4.7 step 1). ledgerPath is a local bbolt
// file used to make Close resumable after a crash; pass "" to disable
// persistence (teardown then becomes best-effort, in-process only).
func Open(ctx context.Context, conn *client.Connection, name, dir string, ledgerPath string) (*Runner, error) {
	cfg := conn.Config()

	archive, err := Package(dir, cfg.Excludes)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		name:    name,
		conn:    conn,
		cfg:     cfg,
		storage: NewStorage(),
		state:   stateBuilt,
	}

	if ledgerPath != "" {
		db, err := bbolt.Open(ledgerPath, 0o600, &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, flame.Wrap(flame.CodeInternal, err, "open runner ledger %s", ledgerPath)
		}
		r.ledger = db
	}

	archiveName := fmt.Sprintf("%s.tar.gz", name)
	archiveURL, err := r.storage.Upload(ctx, cfg.StorageBase, archiveName, archive)
	if err != nil {
		return nil, err
	}
	r.archiveURL = archiveURL
	r.state = stateUploaded
	r.recordLedger()

	appID, err := conn.RegisterApplication(ctx, flame.Application{
		Name:             name,
		Shim:             flame.ShimGRPC,
		URL:              archiveURL,
		WorkingDirectory: name,
		State:            flame.ApplicationEnabled,
	})
	if err != nil {
		// rollback the upload: registration is the next step after upload,
		// so a failure here must not leave an orphaned archive behind.
		_ = r.storage.Delete(ctx, archiveURL)
		return nil, err
	}
	r.appID = appID
	r.state = stateRegistered
	r.recordLedger()

	return r, nil
}

// Service opens a session against the deployed application whose
// common_data is a RunnerContext wrapping execObj, and returns a Proxy
// exposing execObj's exported methods as remote calls (§4.7 step 2).
func (r *Runner) Service(ctx context.Context, execObj any, stateful, autoscale bool) (*Proxy, error) {
	data, err := r.conn.Codec().Marshal(execObj)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "serialize execution object")
	}
	commonData, err := r.conn.Codec().Marshal(RunnerContext{ExecutionObject: data, Stateful: stateful, Autoscale: autoscale})
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "serialize runner context")
	}

	sess, err := client.CreateSession(ctx, r.conn, r.name, 1, commonData)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions = append(r.sessions, sess)
	r.state = stateActive
	r.mu.Unlock()
	r.recordLedger()

	return NewProxy(sess, r.conn.Cache(), execObj), nil
}

// Close runs all three teardown steps unconditionally (§4.7 step 3, §7
// "Runner teardown continues through all three steps even if one fails"):
// close every session, unregister the application, delete the archive.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	appID := r.appID
	archiveURL := r.archiveURL
	r.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, sess := range sessions {
		record(sess.Close(ctx))
	}
	record(r.conn.UnregisterApplication(ctx, appID))
	record(r.storage.Delete(ctx, archiveURL))

	r.mu.Lock()
	r.state = stateTornDown
	r.mu.Unlock()
	r.recordLedger()

	if r.ledger != nil {
		_ = r.ledger.Close()
	}
	return firstErr
}

// recordLedger persists the runner's current state for crash recovery. A
// nil ledger (no path supplied to Open) makes this a no-op.
func (r *Runner) recordLedger() {
	if r.ledger == nil {
		return
	}
	r.mu.Lock()
	entry := fmt.Sprintf("%s\t%s\t%s", r.state, r.appID, r.archiveURL)
	r.mu.Unlock()

	_ = r.ledger.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(ledgerBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(r.name), []byte(entry))
	})
}

// Resume reopens ledgerPath and tears down any runner whose last recorded
// state was not torn_down, for a process recovering from a crash between
// Open and Close. It deletes the archive and unregisters the application by
// the ids recorded in the ledger; it cannot recreate in-process Sessions,
// so it is only useful for cleanup, not resuming Service calls.
func Resume(ctx context.Context, conn *client.Connection, ledgerPath string) error {
	db, err := bbolt.Open(ledgerPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return flame.Wrap(flame.CodeInternal, err, "open runner ledger %s", ledgerPath)
	}
	defer db.Close()

	storage := NewStorage()

	// bbolt forbids mutating a bucket from inside ForEach's callback, so
	// collect every entry first and delete the finished ones in a second
	// pass.
	type ledgerEntry struct {
		name, state, appID, archiveURL string
	}
	var entries []ledgerEntry
	if err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(ledgerBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(name, entry []byte) error {
			fields := strings.Split(string(entry), "\t")
			e := ledgerEntry{name: string(name)}
			if len(fields) > 0 {
				e.state = fields[0]
			}
			if len(fields) > 1 {
				e.appID = fields[1]
			}
			if len(fields) > 2 {
				e.archiveURL = fields[2]
			}
			entries = append(entries, e)
			return nil
		})
	}); err != nil {
		return err
	}

	var done []string
	for _, e := range entries {
		if deployerState(e.state) == stateTornDown {
			continue
		}
		if e.appID != "" {
			_ = conn.UnregisterApplication(ctx, flame.ApplicationID(e.appID))
		}
		if e.archiveURL != "" {
			_ = storage.Delete(ctx, e.archiveURL)
		}
		done = append(done, e.name)
	}

	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(ledgerBucket)
		if b == nil {
			return nil
		}
		for _, name := range done {
			if err := b.Delete([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}
