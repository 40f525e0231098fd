package analysis

import (
	"sort"
	"sync"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// minParallelItems is the catalog size below which a worker pool costs more
// than it saves.
const minParallelItems = 64

// Config holds configuration for the catalog analyzer
type Config struct {
	Workers int // Number of concurrent workers for the per-item pass
}

// Analyzer runs the per-item risk pipeline over a whole catalog and ranks the result.
type Analyzer struct {
	workers int
}

// NewAnalyzer creates a new catalog analyzer
func NewAnalyzer(cfg Config) *Analyzer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{workers: workers}
}

// Analyze runs the engine with a single worker.
func Analyze(inventory []domain.InventoryItem, sales []domain.SaleRecord) []domain.AnalyzedItem {
	return NewAnalyzer(Config{Workers: 1}).Analyze(inventory, sales)
}

// AnalyzeItem runs velocity, both classifiers and the recommendation generator
// for a single item. sales may hold the full history; other items' records are
// skipped.
func AnalyzeItem(item domain.InventoryItem, sales []domain.SaleRecord) domain.AnalyzedItem {
	return analyzeWithVelocity(item, DailyVelocity(sales, item.ID))
}

func analyzeWithVelocity(item domain.InventoryItem, velocity float64) domain.AnalyzedItem {
	stockout := AssessStockout(item, velocity)
	overstock := AssessOverstock(item, velocity)

	return domain.AnalyzedItem{
		InventoryItem:   item,
		DailyVelocity:   velocity,
		StockoutRisk:    stockout,
		OverstockRisk:   overstock,
		Recommendations: Recommend(item, stockout, overstock, velocity),
		OverallRisk:     max(stockout.Severity, overstock.Severity),
	}
}

// Analyze produces the analyzed catalog sorted by overall risk, highest first.
// Items with equal risk keep their input order. Sale records for unknown items
// are ignored.
func (a *Analyzer) Analyze(inventory []domain.InventoryItem, sales []domain.SaleRecord) []domain.AnalyzedItem {
	bySale := indexSales(sales)
	results := make([]domain.AnalyzedItem, len(inventory))

	analyzeAt := func(i int) {
		item := inventory[i]
		results[i] = analyzeWithVelocity(item, velocityOf(bySale[item.ID]))
	}

	if a.workers == 1 || len(inventory) < minParallelItems {
		for i := range inventory {
			analyzeAt(i)
		}
	} else {
		a.analyzeParallel(len(inventory), analyzeAt)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OverallRisk > results[j].OverallRisk
	})

	return results
}

// analyzeParallel fans item indexes out to a fixed pool. Each index is written
// by exactly one worker, so results need no locking.
func (a *Analyzer) analyzeParallel(n int, analyzeAt func(i int)) {
	workerCount := a.workers
	if workerCount > n {
		workerCount = n
	}

	jobChan := make(chan int, n)
	var wg sync.WaitGroup

	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobChan {
				analyzeAt(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
}
