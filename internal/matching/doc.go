// Package matching links canonical registrations to the two independent
// rosters: the small-group membership roster and the multi-year
// historical-attendance roster.
//
// Group-member matching is order-sensitive: members are processed in
// roster order and the first claim wins. Claim state is explicit (see
// ClaimState) so the order dependence is visible and testable with
// constructed fixtures. The algorithm never guesses past an ambiguous
// name collision; those members stay unmatched and are counted.
//
// Historical reconciliation is independent of member matching: a
// registration is "returning" iff its phone key appears in the historical
// roster. Many registrations may share one historical phone (family
// numbers); that is accepted as-is.
package matching
