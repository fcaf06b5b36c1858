// Package catalog links manifest rows to the DICOM-to-BIDS layer.
//
// It exposes a Resolver interface that hides how BIDS identifiers are
// assigned, and a DirResolver implementation that derives them from
// participant IDs while reporting how many participants still have no
// DICOM directory on disk. The manifest builder hands resolvers an
// on-disk snapshot rather than in-memory rows so alternative
// implementations can shell out to external tooling. Tests swap in
// fakes to exercise builder behaviour without a dataset tree.
package catalog
