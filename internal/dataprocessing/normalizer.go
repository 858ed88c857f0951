package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"regpulse/internal/config"
	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9._%+\-]*@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// protectedEmailRe matches the obfuscated markup the report source
	// substitutes for privacy-protected addresses.
	protectedEmailRe = regexp.MustCompile(`(?i)\[\s*email[^\]]*protected\s*\]|/cdn-cgi/l/email-protection`)
	parentheticalRe  = regexp.MustCompile(`\s*\([^)]*\)`)
	compMarkerRe     = regexp.MustCompile(`(?i)\bcomp(limentary)?\b`)
)

// Normalizer converts raw positional rows into canonical registrations.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger falls back to the
// default slog logger.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// BatchResult carries the canonical records of one batch together with
// the anomaly counters accumulated while producing them.
type BatchResult struct {
	Registrations []domain.Registration
	RowsTotal     int
	Malformed     int
	ParseWarnings int
}

// NormalizeBatch maps every raw row onto the canonical schema. Malformed
// rows are skipped and counted; the batch never fails.
func (n *Normalizer) NormalizeBatch(ctx context.Context, rows [][]string) BatchResult {
	result := BatchResult{RowsTotal: len(rows)}
	for i, row := range rows {
		reg, warnings, err := n.NormalizeRow(i, row)
		result.ParseWarnings += warnings
		if err != nil {
			result.Malformed++
			n.logger.WarnContext(ctx, "skipping unmappable row",
				slog.Int("row", i),
				slog.Int("cells", len(row)),
				slog.String("error", err.Error()))
			continue
		}
		result.Registrations = append(result.Registrations, *reg)
	}

	n.logger.InfoContext(ctx, "batch normalized",
		slog.Int("rows_total", result.RowsTotal),
		slog.Int("registrations", len(result.Registrations)),
		slog.Int("malformed", result.Malformed),
		slog.Int("parse_warnings", result.ParseWarnings))

	return result
}

// NormalizeRow produces exactly one canonical registration from a raw row,
// or fails the row as malformed. The returned warning count covers numeric
// fields that were defaulted.
func (n *Normalizer) NormalizeRow(rowIdx int, cells []string) (*domain.Registration, int, error) {
	schema, err := detectSchema(cells)
	if err != nil {
		return nil, 0, errors.NewRowError(errors.AnomalyMalformedRow, rowIdx,
			"row has %d cells, need at least %d", len(cells), legacySchema.MinCells)
	}

	txnID := cell(cells, schema.TransactionID)
	if txnID == "" {
		return nil, 0, errors.NewRowError(errors.AnomalyMalformedRow, rowIdx,
			"row has no transaction id")
	}

	warnings := 0
	amount := parseFloatField(cell(cells, schema.TicketAmount), &warnings)
	// A blank or unparsable quantity stays 0. Backfill relies on that: a
	// zero-quantity row never serves as a group's primary record, and the
	// daily trend only counts tickets the report actually stated.
	quantity := parseIntField(cell(cells, schema.TicketQty), &warnings)
	age := parseIntField(cell(cells, schema.Age), &warnings)
	if age == 0 && schema.AltAge >= 0 {
		age = parseIntField(cell(cells, schema.AltAge), &warnings)
	}

	seatInfo := cell(cells, schema.SeatInfo)
	complimentary := amount == 0 || compMarkerRe.MatchString(seatInfo)

	invitees := readInvitees(cells, schema)
	identity, usedDiscreteNames := resolveIdentity(cells, schema, txnID, complimentary)

	reg := &domain.Registration{
		ID:            txnID,
		TransactionID: txnID,
		Identity:      identity,
		Contact: domain.Contact{
			Phone: cell(cells, schema.Phone),
			Email: extractEmail(cell(cells, schema.Email)),
		},
		Age:         age,
		FormVersion: inferVersion(usedDiscreteNames, invitees),
		Ticket: domain.TicketMeta{
			Amount:        amount,
			Complimentary: complimentary,
			SeatInfo:      seatInfo,
			Quantity:      quantity,
		},
		Transaction: domain.TransactionMeta{
			Date:      cell(cells, schema.TransactionDate),
			Venue:     cell(cells, schema.Venue),
			EventName: cell(cells, schema.EventName),
			ShowDate:  cell(cells, schema.ShowDate),
		},
	}
	if reg.FormVersion == domain.FormVersionLegacy {
		reg.Invitees = invitees
	}

	return reg, warnings, nil
}

// resolveIdentity applies the name resolution order:
//
//  1. discrete first/last name columns when either is populated
//  2. the full-name column split on whitespace
//  3. the complimentary holder name, parentheticals stripped, for comp
//     rows with an empty or placeholder primary name
//  4. a synthetic guest label derived from the transaction id
//
// The result always has a non-empty display name.
func resolveIdentity(cells []string, schema *columnSchema, txnID string, complimentary bool) (domain.Identity, bool) {
	first := cell(cells, schema.FirstName)
	last := cell(cells, schema.LastName)
	if first != "" || last != "" {
		return domain.Identity{
			FirstName:   first,
			LastName:    last,
			DisplayName: strings.TrimSpace(first + " " + last),
		}, true
	}

	if full := cell(cells, schema.FullName); full != "" && !isPlaceholderName(full) {
		return splitFullName(full), false
	}

	if complimentary {
		if comp := cell(cells, schema.CompFullName); comp != "" {
			cleaned := strings.TrimSpace(parentheticalRe.ReplaceAllString(comp, ""))
			if cleaned != "" && !isPlaceholderName(cleaned) {
				return splitFullName(cleaned), false
			}
		}
	}

	short := txnID
	if len(short) > config.GuestLabelIDLength {
		short = short[:config.GuestLabelIDLength]
	}
	return domain.Identity{
		FirstName:   config.GuestLabelPrefix,
		LastName:    short,
		DisplayName: fmt.Sprintf("%s %s", config.GuestLabelPrefix, short),
	}, false
}

// splitFullName takes the first whitespace token as the first name and the
// remainder as the last name, repeating the first token when there is no
// remainder.
func splitFullName(full string) domain.Identity {
	fields := strings.Fields(full)
	first := fields[0]
	last := first
	if len(fields) > 1 {
		last = strings.Join(fields[1:], " ")
	}
	return domain.Identity{
		FirstName:   first,
		LastName:    last,
		DisplayName: strings.Join(fields, " "),
	}
}

// isPlaceholderName reports whether a name cell carries no real name.
func isPlaceholderName(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ".", "-", "--", "na", "n/a", "nil", "guest":
		return true
	}
	return false
}

// readInvitees reads the five referral triples. Empty slots are kept so
// slot positions stay stable.
func readInvitees(cells []string, schema *columnSchema) []domain.Invitee {
	invitees := make([]domain.Invitee, numInvitees)
	for i := 0; i < numInvitees; i++ {
		base := schema.InviteeBase + i*3
		invitees[i] = domain.Invitee{
			Name:  cell(cells, base),
			Phone: cell(cells, base+1),
			Email: extractEmail(cell(cells, base+2)),
		}
	}
	return invitees
}

// extractEmail returns the first RFC-shaped email substring of the cell,
// or the fixed sentinel when the cell carries protected-email markup.
func extractEmail(raw string) string {
	if raw == "" {
		return ""
	}
	if protectedEmailRe.MatchString(raw) {
		return config.ProtectedEmailSentinel
	}
	return emailRe.FindString(raw)
}

// parseFloatField parses a numeric cell tolerating thousands separators.
// Unparsable non-empty values default to 0 and bump the warning counter.
func parseFloatField(raw string, warnings *int) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		*warnings++
		return 0
	}
	return v
}

// parseIntField parses an integer cell tolerating thousands separators
// and float formatting. Unparsable non-empty values default to 0 and bump
// the warning counter.
func parseIntField(raw string, warnings *int) int {
	if raw == "" {
		return 0
	}
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		if f, ferr := strconv.ParseFloat(cleaned, 64); ferr == nil {
			return int(f)
		}
		*warnings++
		return 0
	}
	return v
}
