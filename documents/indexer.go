package documents

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/utils"
	"go.uber.org/zap"
)

// Record is one indexed corpus document: location, change-detection
// fingerprint and whitespace-normalized extracted text.
type Record struct {
	Path    string
	RelPath string
	MTime   int64
	Size    int64
	Text    string
}

// Indexer walks the corpus directory and extracts text from supported
// formats, reusing cached text for files whose fingerprint is unchanged.
type Indexer struct {
	root   string
	cache  Cache
	logger *zap.Logger
}

func NewIndexer(root string, cache Cache, logger *zap.Logger) *Indexer {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Indexer{root: root, cache: cache, logger: logger}
}

// Index rebuilds the document set. Per-file failures are logged and
// skipped; a missing corpus directory yields an empty set. The cache file
// is rewritten only when at least one entry changed.
func (ix *Indexer) Index(ctx context.Context) ([]Record, error) {
	if _, err := os.Stat(ix.root); os.IsNotExist(err) {
		ix.logger.Warn("Documents directory not found, using empty corpus",
			zap.String("dir", ix.root))
		return nil, nil
	}

	cached, err := ix.cache.Load()
	if err != nil {
		// Corrupt or unreadable cache: fall back to full re-extraction.
		ix.logger.Warn("Document cache unusable, re-extracting everything", zap.Error(err))
		cached = map[string]CacheEntry{}
	}

	var records []Record
	fresh := make(map[string]CacheEntry)
	dirty := false

	walkErr := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.logger.Warn("Skipping unreadable corpus path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		info, err := d.Info()
		if err != nil {
			ix.logger.Warn("Skipping unstattable corpus file", zap.String("path", path), zap.Error(err))
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		rel, err := filepath.Rel(ix.root, path)
		if err != nil {
			rel = d.Name()
		}

		fp := Fingerprint{MTime: info.ModTime().UnixNano(), Size: info.Size()}

		if prev, ok := cached[abs]; ok && prev.Meta == fp {
			fresh[abs] = prev
			if prev.Text != "" {
				records = append(records, Record{
					Path:    abs,
					RelPath: prev.RelPath,
					MTime:   fp.MTime,
					Size:    fp.Size,
					Text:    prev.Text,
				})
			}
			return nil
		}

		text, supported := ix.extract(path)
		if !supported {
			return nil
		}
		text = utils.CollapseWhitespace(text)

		fresh[abs] = CacheEntry{Meta: fp, Text: text, RelPath: rel}
		dirty = true

		if text == "" {
			return nil
		}
		records = append(records, Record{
			Path:    abs,
			RelPath: rel,
			MTime:   fp.MTime,
			Size:    fp.Size,
			Text:    text,
		})
		return nil
	})
	if walkErr != nil {
		return records, walkErr
	}

	if dirty || len(fresh) != len(cached) {
		if err := ix.cache.Store(fresh); err != nil {
			ix.logger.Warn("Failed to persist document cache", zap.Error(err))
		}
	}

	return records, nil
}

// extract dispatches on file extension. The second return value is false
// for unsupported formats.
func (ix *Indexer) extract(path string) (string, bool) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".csv":
		text, err = extractPlain(path)
	case ".html", ".htm":
		text, err = extractHTML(path)
	case ".pdf":
		text, err = ix.extractPDF(path)
	default:
		return "", false
	}
	if err != nil {
		ix.logger.Warn("Failed to extract document text", zap.String("path", path), zap.Error(err))
		return "", true
	}
	return text, true
}
