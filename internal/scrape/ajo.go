// Package scrape collects postings from job boards that offer no export and
// writes them as CSV files the regular source loaders can ingest.
package scrape

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/jmtracker/internal/fetcher"
	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/source"
)

// AJOFailureFileName is written to the output directory when some listings
// have no usable id.
const AJOFailureFileName = "aoj_failures.csv"

// ErrMissingIDs is returned when some scraped listings have no id.
var ErrMissingIDs = eris.New("failed to collect some ids for AJO")

// ajoColumns is the header of the CSV the AJO source loads.
var ajoColumns = []string{
	model.ColOrigin, model.ColOriginID, model.ColTitle, model.ColInstitution,
	model.ColDepartment, model.ColLocation, model.ColDeadline, model.ColURL,
	model.ColDivision, model.ColKeywords, model.ColFullText,
}

// Listing is one scraped AJO position.
type Listing map[string]string

// AJOScraper scrapes the AcademicJobsOnline economics listing.
type AJOScraper struct {
	fetcher     fetcher.Fetcher
	baseURL     string
	concurrency int
}

// NewAJOScraper creates a scraper. Detail pages are fetched with at most
// concurrency requests in flight; the fetcher enforces the per-host rate.
func NewAJOScraper(f fetcher.Fetcher, baseURL string, concurrency int) *AJOScraper {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &AJOScraper{fetcher: f, baseURL: baseURL, concurrency: concurrency}
}

// Result reports where the scraped listings were written.
type Result struct {
	Path     string `json:"path"`
	Listings int    `json:"listings"`
}

// Run scrapes every listing and writes them to the AJO input file in
// inputDir. When ids are missing, all listings go to the failure file in
// outputDir instead and ErrMissingIDs is returned.
func (s *AJOScraper) Run(ctx context.Context, inputDir, outputDir string) (Result, error) {
	listings, err := s.Scrape(ctx)
	if err != nil {
		return Result{}, err
	}

	rows := make([][]string, 0, len(listings))
	missing := 0
	for _, l := range listings {
		if l[model.ColOriginID] == "" {
			missing++
		}
		row := make([]string, len(ajoColumns))
		for i, col := range ajoColumns {
			row[i] = l[col]
		}
		rows = append(rows, row)
	}

	if missing > 0 {
		p := filepath.Join(outputDir, AJOFailureFileName)
		if err := writeCSV(p, rows); err != nil {
			return Result{}, err
		}
		zap.L().Warn("ajo listings without id", zap.Int("missing", missing), zap.String("path", p))
		return Result{Path: p, Listings: len(rows)}, eris.Wrapf(ErrMissingIDs, "%d of %d listings, see %s", missing, len(rows), p)
	}

	p := filepath.Join(inputDir, source.AJOInputFileName)
	if err := writeCSV(p, rows); err != nil {
		return Result{}, err
	}
	zap.L().Info("stored ajo postings", zap.Int("listings", len(rows)), zap.String("path", p))
	return Result{Path: p, Listings: len(rows)}, nil
}

func writeCSV(p string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return eris.Wrap(err, "scrape: create directory")
	}
	return fetcher.WriteCSVFile(p, ajoColumns, rows)
}

// Scrape fetches the listing page and every position it links to.
func (s *AJOScraper) Scrape(ctx context.Context) ([]Listing, error) {
	page, err := s.fetchPage(ctx, s.baseURL)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: ajo listing page")
	}
	links, err := positionLinks(page, s.baseURL)
	if err != nil {
		return nil, err
	}
	zap.L().Info("found ajo positions", zap.Int("count", len(links)))

	listings := make([]Listing, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, link := range links {
		g.Go(func() error {
			detail, err := s.fetchPage(gctx, link)
			if err != nil {
				return eris.Wrapf(err, "scrape: ajo position %s", link)
			}
			listings[i] = parsePosition(detail, link)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *AJOScraper) fetchPage(ctx context.Context, u string) (string, error) {
	page, err := s.fetcher.FetchPage(ctx, u)
	if err != nil {
		return "", err
	}
	if bt := DetectBlock(page); bt != BlockNone {
		return "", eris.Errorf("blocked (%s) at %s", bt, u)
	}
	return page, nil
}

var hrefRe = regexp.MustCompile(`(?is)<dt\b.*?<a\b[^>]*\bhref\s*=\s*["']([^"']+)["']`)

// positionLinks returns the first link in the <dt> of every <dl> on the
// listing page, resolved against base.
func positionLinks(page, base string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse base url %q", base)
	}
	var links []string
	for _, dl := range elements(page, "dl") {
		m := hrefRe.FindStringSubmatch(dl.Inner)
		if m == nil {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(m[1]))
		if err != nil {
			zap.L().Warn("skipping bad ajo link", zap.String("href", m[1]))
			continue
		}
		links = append(links, baseURL.ResolveReference(ref).String())
	}
	return links, nil
}

var (
	deadlineRe = regexp.MustCompile(`\d{4}/\d{2}/\d{2}`)
	digitsRe   = regexp.MustCompile(`\d+`)
)

// parsePosition extracts a listing from a position page. The heading holds
// "Institution, Department", the second table the description and the
// "nobr" table the labelled fields.
func parsePosition(page, link string) Listing {
	l := Listing{
		model.ColOrigin: source.OriginAJO,
		model.ColURL:    link,
	}

	if h2 := elements(page, "h2"); len(h2) > 0 {
		heading := cleanText(h2[0].Inner)
		institution, department, _ := strings.Cut(heading, ",")
		l[model.ColInstitution] = strings.TrimSpace(institution)
		l[model.ColDepartment] = strings.TrimSpace(department)
	}

	tables := elements(page, "table")
	if len(tables) > 1 {
		l[model.ColFullText] = cleanText(tables[1].Inner)
	}

	if u, err := url.Parse(link); err == nil {
		l[model.ColOriginID] = digitsRe.FindString(path.Base(u.Path))
	}

	for _, t := range tables {
		if !hasClass(t.Attrs, "nobr") {
			continue
		}
		for _, tr := range elements(t.Inner, "tr") {
			label, value, ok := strings.Cut(cleanText(tr.Inner), ":")
			if !ok {
				continue
			}
			if col, v, keep := positionField(strings.ToLower(strings.TrimSpace(label)), strings.TrimSpace(value)); keep {
				l[col] = v
			}
		}
		break
	}
	return l
}

// positionField maps a labelled row of the position table to a column.
func positionField(label, value string) (string, string, bool) {
	switch {
	case strings.Contains(label, " id"), strings.Contains(label, "description"):
		return "", "", false
	case strings.Contains(label, "location"):
		loc, _, _ := strings.Cut(value, "[ map ]")
		return model.ColLocation, strings.TrimSpace(loc), true
	case strings.Contains(label, "deadline"):
		due, _, _ := strings.Cut(value, "(posted")
		return model.ColDeadline, deadlineRe.FindString(due), true
	case strings.Contains(label, "subject"):
		return model.ColKeywords, value, true
	case strings.Contains(label, "title"):
		return model.ColTitle, value, true
	case strings.Contains(label, "type"):
		return model.ColDivision, value, true
	}
	return "", "", false
}
