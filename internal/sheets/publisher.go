// Package sheets publishes reports to a Google spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"bingo-tracker/internal/constants"
	"bingo-tracker/internal/report"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw  = "RAW"
	valueInputUser = "USER_ENTERED"
)

// Publisher writes each report to a sheet named after its title. The sheet
// is created on first publish and fully replaced on every later one.
type Publisher struct {
	svc           *gsheets.Service
	transport     *http.Transport
	spreadsheetID string
	constants     report.Constants
	logger        zerolog.Logger
}

// Open authenticates with a service account credentials file.
func Open(ctx context.Context, credentialsFile, spreadsheetID string, consts report.Constants, logger zerolog.Logger) (*Publisher, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{
		Transport: &oauth2.Transport{Source: creds.TokenSource, Base: transport},
		Timeout:   constants.PublishTimeout,
	}
	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	logger.Info().Str("spreadsheet_id", spreadsheetID).Msg("sheets session opened")
	return NewPublisher(svc, transport, spreadsheetID, consts, logger), nil
}

// NewPublisher wraps an existing service. transport, when set, is released
// by Close.
func NewPublisher(svc *gsheets.Service, transport *http.Transport, spreadsheetID string, consts report.Constants, logger zerolog.Logger) *Publisher {
	return &Publisher{
		svc:           svc,
		transport:     transport,
		spreadsheetID: spreadsheetID,
		constants:     consts,
		logger:        logger,
	}
}

// Close releases the session's idle connections.
func (p *Publisher) Close() {
	if p.transport != nil {
		p.transport.CloseIdleConnections()
	}
	p.logger.Debug().Str("spreadsheet_id", p.spreadsheetID).Msg("sheets session closed")
}

func (p *Publisher) Publish(ctx context.Context, r *report.Report) error {
	titles, err := p.sheetTitles(ctx)
	if err != nil {
		return err
	}

	title := r.Config.SheetTitle
	if _, ok := titles[title]; !ok {
		if err := p.addSheet(ctx, title, r.Layout.Len()); err != nil {
			return err
		}
	}

	rng := report.QuoteSheet(title)
	if _, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, rng, &gsheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", title, err)
	}
	if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, rng+"!A1", &gsheets.ValueRange{Values: r.Values()}).
		ValueInputOption(valueInputRaw).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to write %s: %w", title, err)
	}

	if r.Efficiency == nil {
		return nil
	}

	if _, ok := titles[r.Efficiency.TargetSheet]; !ok {
		if err := p.addSheet(ctx, r.Efficiency.TargetSheet, 0); err != nil {
			return err
		}
	}
	if err := p.writeFormulas(ctx, r.Efficiency); err != nil {
		return err
	}
	return p.seedConstants(ctx, r)
}

func (p *Publisher) writeFormulas(ctx context.Context, set *report.FormulaSet) error {
	if len(set.Formulas) == 0 {
		return nil
	}
	values := make([][]interface{}, len(set.Formulas))
	for i, f := range set.Formulas {
		values[i] = []interface{}{f}
	}
	if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, set.Range(), &gsheets.ValueRange{Values: values}).
		ValueInputOption(valueInputUser).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to write efficiency formulas to %s: %w", set.Range(), err)
	}
	p.logger.Debug().Str("range", set.Range()).Int("terms", len(set.Terms)).Msg("efficiency formulas written")
	return nil
}

// seedConstants writes the configured constants into the cells the formulas
// divide by. Metrics without a configured constant keep whatever the sheet
// already holds.
func (p *Publisher) seedConstants(ctx context.Context, r *report.Report) error {
	consts := p.constants.For(r.Config.Name)
	if len(consts) == 0 || len(r.Efficiency.Terms) == 0 {
		return nil
	}

	e := r.Config.Efficiency
	values := make([][]interface{}, len(r.Efficiency.Terms))
	for i, term := range r.Efficiency.Terms {
		if v, ok := consts[term.Metric]; ok {
			values[i] = []interface{}{v}
		} else {
			values[i] = []interface{}{nil}
		}
	}
	last := e.ConstantsFirstRow + len(values) - 1
	rng := fmt.Sprintf("%s!%s%d:%s%d", report.QuoteSheet(e.TargetSheet), e.ConstantsColumn, e.ConstantsFirstRow, e.ConstantsColumn, last)
	if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, rng, &gsheets.ValueRange{Values: values}).
		ValueInputOption(valueInputRaw).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to seed efficiency constants to %s: %w", rng, err)
	}
	return nil
}

func (p *Publisher) sheetTitles(ctx context.Context) (map[string]int64, error) {
	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet %s: %w", p.spreadsheetID, err)
	}
	titles := make(map[string]int64, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return titles, nil
}

// addSheet creates a sheet and sets the width of its first columns.
func (p *Publisher) addSheet(ctx context.Context, title string, columns int) error {
	resp, err := p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", title, err)
	}
	p.logger.Info().Str("sheet", title).Msg("sheet created")

	if columns == 0 || len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return nil
	}
	sheetID := resp.Replies[0].AddSheet.Properties.SheetId

	_, err = p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			UpdateDimensionProperties: &gsheets.UpdateDimensionPropertiesRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
				Properties: &gsheets.DimensionProperties{PixelSize: constants.SheetColumnWidth},
				Fields:     "pixelSize",
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to set column widths on %s: %w", title, err)
	}
	return nil
}
