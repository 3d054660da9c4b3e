// Command catalog-ingest builds the product catalog from gzipped supplier
// price feeds. A SKU is accepted only when at least two suppliers list it,
// which filters out feed noise and one-off typos.
//
// The feeds are far larger than memory, so agreement is computed in two
// streaming passes: pass 1 builds one bloom filter per feed, pass 2
// re-streams each feed and keeps records whose SKU tests positive in another
// feed's filter. Accepted SKUs are upserted with the lowest quoted price.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-till-service/internal/domain/product"
	"github.com/xenking/pos-till-service/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	feedColumns   = 5
)

// feedRecord is one parsed supplier feed line.
type feedRecord struct {
	product product.Product
}

// fileResult holds the candidate SKUs found in one feed during pass 2: a
// per-feed presence bitmask plus the feed's own record for each SKU.
type fileResult struct {
	masks   map[string]uint
	records map[string]feedRecord
}

func main() {
	var (
		dataDir     string
		databaseURL string
		numFeeds    int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing supplier-feed-N.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&numFeeds, "feeds", 3, "number of supplier feed files")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, numFeeds); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, numFeeds int) error {
	files := make([]string, numFeeds)
	for i := range numFeeds {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("supplier-feed-%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("pass 1: building bloom filters", slog.Int("feeds", numFeeds))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: collecting agreed SKUs")

	agreed, err := collectAgreedProducts(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "collect agreed products")
	}

	slog.Info("agreed SKUs found", slog.Int("count", len(agreed)))

	if len(agreed) == 0 {
		slog.Info("no products to upsert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeProducts(ctx, repository.NewProductRepository(pool), agreed); err != nil {
		return errors.Wrap(err, "write products to database")
	}

	return nil
}

// buildBloomFilters creates one bloom filter of SKUs per feed, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFeed(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamFeed(ctx, path, func(rec feedRecord) {
			filter.AddString(rec.product.ID)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("records", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for feed %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_records", count),
		)

		filters[idx] = filter
		return nil
	}
}

// collectAgreedProducts re-streams each feed, keeping records whose SKU also
// appears in another feed's filter, then merges to SKUs listed by 2+ feeds.
func collectAgreedProducts(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]product.Product, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(collectCandidatesInFeed(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge presence masks; keep the lowest quoted price per agreed SKU.
	masks := make(map[string]uint)
	best := make(map[string]feedRecord)
	for _, r := range results {
		for sku, mask := range r.masks {
			masks[sku] |= mask
		}
		for sku, rec := range r.records {
			cur, ok := best[sku]
			if !ok || rec.product.Price.LessThan(cur.product.Price) {
				best[sku] = rec
			}
		}
	}

	var agreed []product.Product
	for sku, mask := range masks {
		if bits.OnesCount(mask) >= 2 {
			agreed = append(agreed, best[sku].product)
		}
	}

	return agreed, nil
}

func collectCandidatesInFeed(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		masks := make(map[string]uint)
		records := make(map[string]feedRecord)
		feedBit := uint(1) << uint(idx)
		var count uint64

		if err := streamFeed(ctx, path, func(rec feedRecord) {
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("records", count),
				)
			}

			// Only keep records whose SKU some OTHER feed also lists.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(rec.product.ID) {
					masks[rec.product.ID] |= feedBit
					if cur, ok := records[rec.product.ID]; !ok || rec.product.Price.LessThan(cur.product.Price) {
						records[rec.product.ID] = rec
					}
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan feed %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_records", count),
			slog.Int("candidates", len(masks)),
		)

		results[idx] = fileResult{masks: masks, records: records}
		return nil
	}
}

// streamFeed opens a gzipped feed and calls fn for each parseable record.
// Lines are "sku,name,price,tax_rate,category"; malformed lines are skipped.
func streamFeed(ctx context.Context, path string, fn func(rec feedRecord)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec, ok := parseFeedLine(scanner.Text()); ok {
			fn(rec)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// parseFeedLine parses one feed line, rejecting anything that would not be a
// sellable catalog row: missing fields, unparseable or negative prices, tax
// rates outside [0, 1).
func parseFeedLine(line string) (feedRecord, bool) {
	fields := strings.Split(line, ",")
	if len(fields) != feedColumns {
		return feedRecord{}, false
	}

	sku := strings.TrimSpace(fields[0])
	name := strings.TrimSpace(fields[1])
	if sku == "" || name == "" {
		return feedRecord{}, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
	if err != nil || price.IsNegative() {
		return feedRecord{}, false
	}
	taxRate, err := decimal.NewFromString(strings.TrimSpace(fields[3]))
	if err != nil || taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return feedRecord{}, false
	}

	return feedRecord{product: product.Product{
		ID:       sku,
		Name:     name,
		Price:    price,
		TaxRate:  taxRate,
		Category: strings.TrimSpace(fields[4]),
	}}, true
}

// writeProducts upserts all agreed products.
func writeProducts(ctx context.Context, repo *repository.ProductRepository, products []product.Product) error {
	slog.Info("writing products to database", slog.Int("count", len(products)))

	for i, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		if (i+1)%100 == 0 || i+1 == len(products) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(products)))
		}
	}

	return nil
}
