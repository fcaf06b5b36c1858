// Package descriptions classifies free-text scan description strings into
// BIDS datatypes using substring filter rules.
//
// Classification runs per target (dwi, func, and the four anatomical
// subtypes) against the imaging availability export. Each target's rule
// names the modality to search in, the substrings expected in matching
// descriptions, and the rejection and exclusion lists that prune false
// positives. The anatomical subtypes run as an ordered chain where every
// description assigned to an earlier subtype is excluded from the later
// ones, so the subtype lists stay disjoint.
//
// The resulting mapping is persisted as the JSON artifact consumed by the
// manifest builder; descriptions matched by no rule land in the ignored
// CSV for curator review.
package descriptions
