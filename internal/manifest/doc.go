// Package manifest builds the per-participant-per-visit availability
// manifest from the imaging export, the clinical study-data files, the
// participant status file, and the classified description lists.
//
// A run maps imaging visits and cohorts to their canonical codes, fills
// missing cohort assignments from imaging data where unambiguous,
// filters to the configured sessions and cohorts, aggregates available
// datatypes per participant and visit, outer-joins imaging against
// tabular availability, and resolves BIDS identifiers through the
// catalog resolver against an on-disk snapshot. The final file is
// written atomically and only when its content actually changed;
// overwriting a differing manifest requires an explicit flag.
package manifest
