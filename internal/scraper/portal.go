package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"regpulse/internal/config"
)

// extractRowsJS pulls every cell of the report table, row by row, in
// column order. Positions matter downstream; nothing is filtered here.
const extractRowsJS = `Array.from(document.querySelectorAll('#reportTable tbody tr')).map(tr =>
	Array.from(tr.querySelectorAll('td')).map(td => td.innerText.trim()))`

// nextPageJS reports whether the pager has an enabled next link.
const nextPageJS = `(() => {
	const next = document.querySelector('a.pager-next:not(.disabled)');
	return next !== null;
})()`

// PortalSource drives a headless browser session against the report
// portal: log in, run the registration report, walk every result page
// and extract the table cells.
type PortalSource struct {
	cfg     config.SourceConfig
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewPortalSource creates a browser-backed ReportSource.
func NewPortalSource(cfg config.SourceConfig, logger *slog.Logger) *PortalSource {
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.PageDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &PortalSource{
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// FetchRows runs the scraping session and returns the raw rows of every
// result page, header row excluded.
func (s *PortalSource) FetchRows(ctx context.Context) ([][]string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, s.login()); err != nil {
		return nil, fmt.Errorf("portal login failed: %w", err)
	}

	var all [][]string
	page := 1
	for {
		if err := s.limiter.Wait(browserCtx); err != nil {
			return nil, err
		}

		var rows [][]string
		if err := chromedp.Run(browserCtx,
			chromedp.WaitVisible(`#reportTable`, chromedp.ByID),
			chromedp.Evaluate(extractRowsJS, &rows),
		); err != nil {
			return nil, fmt.Errorf("extract page %d: %w", page, err)
		}

		all = append(all, rows...)
		s.logger.InfoContext(ctx, "report page scraped",
			slog.Int("page", page),
			slog.Int("rows", len(rows)),
			slog.Int("total_rows", len(all)))

		var hasNext bool
		if err := chromedp.Run(browserCtx, chromedp.Evaluate(nextPageJS, &hasNext)); err != nil || !hasNext {
			break
		}
		if err := chromedp.Run(browserCtx,
			chromedp.Click(`a.pager-next`, chromedp.ByQuery),
			chromedp.WaitVisible(`#reportTable`, chromedp.ByID),
		); err != nil {
			// Pager click failures mean the last page was reached.
			break
		}
		page++
	}

	return stripHeaderRows(all), nil
}

// login fills the portal sign-in form and opens the registration report.
func (s *PortalSource) login() chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate(s.cfg.PortalURL),
		chromedp.WaitVisible(`#username`, chromedp.ByID),
		chromedp.SetValue(`#username`, s.cfg.Username, chromedp.ByID),
		chromedp.SetValue(`#password`, s.cfg.Password, chromedp.ByID),
		chromedp.Click(`#loginSubmit`, chromedp.ByID),
		chromedp.WaitVisible(`#reportMenu`, chromedp.ByID),
		chromedp.Click(`#reportMenu a[data-report="registrations"]`, chromedp.ByQuery),
	}
}

// stripHeaderRows drops repeated header rows the portal renders at the
// top of every page.
func stripHeaderRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		if len(row) > 2 && looksLikeHeaderRow(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func looksLikeHeaderRow(row []string) bool {
	for _, cell := range row {
		switch cell {
		case "Transaction Id", "Transaction Date", "Ticket Amount":
			return true
		}
	}
	return false
}
