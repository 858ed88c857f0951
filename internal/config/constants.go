package config

// Campaign and schema constants shared across the pipeline.
const (
	// DefaultReferralCutoff is the phase cutoff: registrations at or
	// after this date never enter the referral histogram.
	DefaultReferralCutoff = "2025-10-09"

	// ProtectedEmailSentinel replaces obfuscated email markup that the
	// report source emits for privacy-protected addresses.
	ProtectedEmailSentinel = "protected@unavailable.email"

	// GuestLabelPrefix prefixes the synthetic display name used when a
	// row carries no name data at all.
	GuestLabelPrefix = "Guest"

	// GuestLabelIDLength is how many leading characters of the
	// transaction id go into the synthetic guest label.
	GuestLabelIDLength = 8

	// CompSuffixFormat derives distinct storage keys for expanded
	// complimentary tickets: <txn>_comp_<ordinal>.
	CompSuffixFormat = "%s_comp_%d"

	// TransactionDateLayout is the DD-MM-YYYY HH:MM:SS shape of the
	// exported transaction date column.
	TransactionDateLayout = "02-01-2006 15:04:05"
)
