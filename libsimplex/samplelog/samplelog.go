package samplelog

import (
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

/***

Sample log format:

	step (8 bytes, big endian)  =>  Sample.AppendEncoding()

Keys sort in step order, so Select() is a single forward seek and scan.

***/

// Opts configures a SampleLog.
type Opts struct {
	Label string // tag used in log output
}

// SampleLog is an in-memory LSM of run samples keyed by step.
type SampleLog struct {
	ctx        gosimplex.LogContext
	label      string
	mu         sync.Mutex
	db         *badger.DB
	numSamples atomic.Int64
}

// Open returns a new empty SampleLog attached to ctx.  The log is detached when it closes.
func Open(ctx gosimplex.LogContext, opts Opts) (*SampleLog, error) {
	dbOpts := badger.DefaultOptions("").WithInMemory(true)
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrap(err, "opening sample log")
	}

	log := &SampleLog{
		ctx:   ctx,
		label: opts.Label,
		db:    db,
	}
	if ctx != nil {
		ctx.AttachLog(log)
	}
	return log, nil
}

func (log *SampleLog) Label() string {
	return log.label
}

func (log *SampleLog) NumSamples() int64 {
	return log.numSamples.Load()
}

// TryAddSample adds s unless a sample for the same step is already present.
func (log *SampleLog) TryAddSample(s gosimplex.Sample) bool {
	log.mu.Lock()
	db := log.db
	log.mu.Unlock()
	if db == nil {
		return false
	}

	var keyBuf [gosimplex.StepKeySz]byte
	key := gosimplex.AppendStepKey(keyBuf[:0], s.Step)

	added := false
	err := db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		added = true
		return txn.Set(key, s.AppendEncoding(nil))
	})
	if err != nil {
		klog.Warningf("sample log %q: adding step %d: %v", log.label, s.Step, err)
		return false
	}

	if added {
		log.numSamples.Add(1)
	}
	return added
}

// Select sends each sample with minStep <= Step <= maxStep to onHit in ascending step order.
// A negative maxStep selects through the last sample.
func (log *SampleLog) Select(minStep, maxStep int64, onHit chan<- gosimplex.Sample) error {
	log.mu.Lock()
	db := log.db
	log.mu.Unlock()
	if db == nil {
		return gosimplex.ErrLogClosed
	}

	if minStep < 0 {
		minStep = 0
	}
	var seekBuf [gosimplex.StepKeySz]byte
	seek := gosimplex.AppendStepKey(seekBuf[:0], minStep)

	return db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		itr := txn.NewIterator(opts)
		defer itr.Close()

		for itr.Seek(seek); itr.Valid(); itr.Next() {
			item := itr.Item()
			step, err := gosimplex.ReadStepKey(item.Key())
			if err != nil {
				return err
			}
			if maxStep >= 0 && step > maxStep {
				break
			}

			var s gosimplex.Sample
			err = item.Value(func(val []byte) error {
				return s.InitFromEncoding(step, val)
			})
			if err != nil {
				return errors.Wrapf(err, "sample log %q: step %d", log.label, step)
			}
			onHit <- s
		}
		return nil
	})
}

// Close releases the log's storage and detaches it from its context.  Subsequent calls have no effect.
func (log *SampleLog) Close() error {
	log.mu.Lock()
	db := log.db
	log.db = nil
	log.mu.Unlock()

	if db == nil {
		return nil
	}

	err := db.Close()
	if log.ctx != nil {
		log.ctx.DetachLog(log)
	}
	return err
}
