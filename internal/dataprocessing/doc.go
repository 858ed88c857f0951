// Package dataprocessing turns raw registration report rows into the
// canonical per-attendee record set.
//
// # Architecture
//
// The package is organized into four components, applied in order:
//
//  1. Parser: reads the exported report (Excel workbook or tabular text)
//     into raw positional rows
//  2. Normalizer: maps each raw row onto the canonical schema, resolving
//     the two incompatible form layouts
//  3. Expander: splits multi-ticket complimentary rows into one record
//     per physical attendee
//  4. Backfill: propagates transaction-level fields across rows of one
//     group purchase
//
// # Data Flow
//
//	Report export → Parser → RawRows → Normalizer → Registrations →
//	Expander → Backfill → canonical set
//
// # Error Handling
//
// Nothing here is fatal to a batch. Rows with too few cells are skipped
// and counted as malformed; unparsable numerics default to zero and are
// counted as parse warnings. The batch always completes and the counters
// surface in the run report.
package dataprocessing
