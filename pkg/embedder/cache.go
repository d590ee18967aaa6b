package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/soundprediction/duocdien/pkg/nlp"
)

// CachedClient memoizes embeddings in a badger store keyed by model and text,
// so rebuilding the corpus index after a restart does not re-embed every entry.
type CachedClient struct {
	inner  Client
	db     *badger.DB
	model  string
	logger *slog.Logger
	ownsDB bool
}

// OpenCache opens (or creates) a badger store at dir. An empty dir gives an in-memory store.
func OpenCache(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return db, nil
}

// NewCachedClient wraps inner. model namespaces the keys so switching models never
// serves stale vectors.
func NewCachedClient(inner Client, db *badger.DB, model string, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{inner: inner, db: db, model: model, logger: logger}
}

// NewCachedClientAt opens a store at dir and closes it together with the client.
func NewCachedClientAt(inner Client, dir, model string, logger *slog.Logger) (*CachedClient, error) {
	db, err := OpenCache(dir)
	if err != nil {
		return nil, err
	}
	c := NewCachedClient(inner, db, model, logger)
	c.ownsDB = true
	return c, nil
}

// Embed returns cached vectors and embeds only the misses, preserving input order.
func (c *CachedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	err := c.db.View(func(txn *badger.Txn) error {
		for i, t := range texts {
			item, err := txn.Get(c.key(t))
			if errors.Is(err, badger.ErrKeyNotFound) {
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, t)
				continue
			}
			if err != nil {
				return err
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			vec, err := decodeVector(raw)
			if err != nil {
				// treat a corrupt entry as a miss; it is overwritten below
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, t)
				continue
			}
			out[i] = vec
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("embedding cache read failed, embedding everything", "error", err)
		return c.inner.Embed(ctx, texts)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d for %d inputs", ErrCountMismatch, len(fresh), len(missTexts))
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for j, i := range missIdx {
		out[i] = fresh[j]
		if err := wb.Set(c.key(missTexts[j]), encodeVector(fresh[j])); err != nil {
			c.logger.Warn("embedding cache write failed", "error", err)
			return out, nil
		}
	}
	if err := wb.Flush(); err != nil {
		c.logger.Warn("embedding cache flush failed", "error", err)
	}
	c.logger.Debug("embedding cache", "hits", len(texts)-len(missTexts), "misses", len(missTexts))
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (c *CachedClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, c, text)
}

// Dimensions delegates to the wrapped client.
func (c *CachedClient) Dimensions() int {
	return c.inner.Dimensions()
}

// GetCapabilities delegates to the wrapped client.
func (c *CachedClient) GetCapabilities() []nlp.TaskCapability {
	return c.inner.GetCapabilities()
}

// Close closes the wrapped client and, when owned, the store.
func (c *CachedClient) Close() error {
	err := c.inner.Close()
	if c.ownsDB {
		if dbErr := c.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}
	return err
}

func (c *CachedClient) key(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	k := make([]byte, 0, 4+len(c.model)+1+len(sum))
	k = append(k, "emb:"...)
	k = append(k, c.model...)
	k = append(k, ':')
	return append(k, sum[:]...)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
