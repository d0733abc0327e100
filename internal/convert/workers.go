package convert

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/mapreduce"
	"github.com/dtnitsch/markdownizer/pkg/normalizer"
	"github.com/dtnitsch/markdownizer/pkg/storage"
)

// emptyExtension stands in for the extension capture when none was given,
// so the server copy wins whenever it has any content.
const emptyExtension = "<html><body></body></html>"

// batch is everything one convert run shares across workers.
type batch struct {
	logger    *slog.Logger
	runner    Runner
	store     *storage.Storage
	analytics *analytics.Analytics
	extHTML   string
	now       func() time.Time
}

// run converts every URL with a bounded worker pool and aggregates keyword
// counts over all converted pages.
func (b *batch) run(ctx context.Context, cfg *models.ConvertConfig) ([]Result, map[string]int) {
	workers := max(cfg.WorkerCount, 1)
	b.logger.Info("Starting concurrent convert phase", "url_count", len(cfg.URLs), "workers", workers)

	var wg sync.WaitGroup
	jobs := make(chan Job, len(cfg.URLs))
	results := make(chan Result, len(cfg.URLs))

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go b.worker(ctx, w, &wg, jobs, results)
	}

	for _, rawURL := range cfg.URLs {
		jobs <- Job{URL: rawURL}
	}
	close(jobs)

	wg.Wait()
	close(results)
	b.logger.Info("All convert workers finished")

	order := make(map[string]int, len(cfg.URLs))
	for i, u := range cfg.URLs {
		if _, ok := order[u]; !ok {
			order[u] = i
		}
	}

	all := make([]Result, 0, len(cfg.URLs))
	var intermediate []map[string]int
	for r := range results {
		all = append(all, r)
		if r.WordCounts != nil {
			intermediate = append(intermediate, r.WordCounts)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return order[all[i].URL] < order[all[j].URL] })

	return all, mapreduce.Reduce(intermediate)
}

func (b *batch) worker(ctx context.Context, id int, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		results <- b.process(ctx, id, job)
	}
}

func (b *batch) process(ctx context.Context, id int, job Job) Result {
	log := b.logger.With("worker_id", id, "url", normalizer.RedactTokens(job.URL))
	log.Info("Worker started job")
	result := Result{URL: job.URL}

	extHTML := b.extHTML
	if strings.TrimSpace(extHTML) == "" {
		extHTML = emptyExtension
	}
	req := models.IngestRequest{
		URL:           job.URL,
		Title:         pageTitle(extHTML, job.URL),
		HTMLExtension: extHTML,
		Meta:          models.CaptureMeta{CapturedAt: b.now().UTC().Format(time.RFC3339)},
	}

	out, err := b.runner.Run(ctx, req)
	if err != nil {
		log.Error("Error converting page", "error", err)
		result.Error = err
		result.ErrorType = "convert_error"
		return result
	}
	result.Outcome = out

	result.WordCounts = mapreduce.Map(out, b.analytics)

	path, err := b.store.SaveMarkdown(job.URL, out.Markdown, b.now())
	if err != nil {
		log.Error("Error saving markdown", "error", err)
		result.Error = err
		result.ErrorType = "save_error"
		return result
	}
	result.FilePath = path
	result.FileSizeBytes = int64(len(out.Markdown))

	log.Info("Worker finished job", "chosen", string(out.Chosen), "reason", string(out.Reason), "file", path)
	return result
}

// pageTitle takes the <title>, then the first <h1>, then the URL itself.
func pageTitle(html, rawURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
			return t
		}
		if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
			return t
		}
	}
	return rawURL
}
