package ledgerstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/pkg/retrier"
)

const (
	DefaultDir          = "./wal/ledger"
	defaultSegmentLimit = 1000
	defaultMaxSegments  = 100000
	defaultRetries      = 3

	batchKeyPrefix = "batch_"
)

// JournalConfig tunes the write-ahead log behind the store.
type JournalConfig struct {
	Dir              string
	SegmentThreshold int
	MaxSegments      int
	Retries          int
	Logger           *zap.Logger
}

// Journal persists committed batches in a WAL, one record per batch, so a
// batch is either fully replayed or not at all.
type Journal struct {
	wal     *gowal.Wal
	retrier *retrier.Retrier
	mu      sync.Mutex
}

// OpenJournal opens or creates the WAL in cfg.Dir.
func OpenJournal(cfg JournalConfig) (*Journal, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir
	}
	if cfg.SegmentThreshold <= 0 {
		cfg.SegmentThreshold = defaultSegmentLimit
	}
	if cfg.MaxSegments <= 0 {
		cfg.MaxSegments = defaultMaxSegments
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              cfg.Dir,
		Prefix:           "ledger_",
		SegmentThreshold: cfg.SegmentThreshold,
		MaxSegments:      cfg.MaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init ledger WAL")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Journal{
		wal: wal,
		retrier: retrier.New(
			retrier.WithMaxRetries(cfg.Retries),
			retrier.WithInitialInterval(50*time.Millisecond),
			retrier.WithMaxInterval(time.Second),
			retrier.WithRetryIf(func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}),
			retrier.WithOnRetry(func(attempt int, err error) {
				logger.Warn("retrying ledger WAL write", zap.Int("attempt", attempt), zap.Error(err))
			}),
		),
	}, nil
}

// Append writes the batch as a single WAL record.
func (j *Journal) Append(ctx context.Context, batch domain.Batch) error {
	if j == nil || j.wal == nil {
		return errors.New("ledger journal is not initialized")
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return errors.Wrap(err, "marshal ledger batch")
	}
	key := batchKeyPrefix + uuid.NewString()

	j.mu.Lock()
	defer j.mu.Unlock()

	index := j.wal.CurrentIndex() + 1
	err = j.retrier.Do(ctx, func(context.Context) error {
		return j.wal.Write(index, key, payload)
	})
	return errors.Wrapf(err, "write ledger batch %d", index)
}

// Replay feeds every stored batch to fn in commit order.
func (j *Journal) Replay(fn func(domain.Batch) error) error {
	if j == nil || j.wal == nil {
		return errors.New("ledger journal is not initialized")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	current := j.wal.CurrentIndex()
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, err := j.wal.Get(idx)
		if err != nil {
			return errors.Wrapf(err, "read ledger batch %d", idx)
		}
		if !strings.HasPrefix(key, batchKeyPrefix) {
			continue
		}

		var batch domain.Batch
		if err := json.Unmarshal(payload, &batch); err != nil {
			return errors.Wrapf(err, "decode ledger batch %d", idx)
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return errors.New("ledger journal is not initialized")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}
