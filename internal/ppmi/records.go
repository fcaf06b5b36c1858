package ppmi

import (
	"fmt"
	"strings"

	"roster/internal/tabfile"
)

// ImagingRecords converts an imaging availability table into typed rows.
// The protocol column is optional; it is only consulted by protocol
// filter rules.
func ImagingRecords(t *tabfile.Table) ([]ImagingRecord, error) {
	missing := t.MissingColumns(ColImagingSubject, ColImagingVisit, ColImagingGroup, ColDescription, ColModality)
	if len(missing) > 0 {
		return nil, fmt.Errorf("imaging data missing required columns: %s", strings.Join(missing, ", "))
	}

	records := make([]ImagingRecord, 0, t.Len())
	for i := range t.Rows {
		records = append(records, ImagingRecord{
			Subject:     t.Value(i, ColImagingSubject),
			Visit:       t.Value(i, ColImagingVisit),
			Group:       t.Value(i, ColImagingGroup),
			Description: t.Value(i, ColDescription),
			Modality:    t.Value(i, ColModality),
			Protocol:    t.Value(i, ColImagingProtocol),
		})
	}
	return records, nil
}

// TabularRecords converts a clinical study-data table into typed rows.
// Subject and visit columns are required; the cohort column is read
// when present.
func TabularRecords(t *tabfile.Table) ([]TabularRecord, error) {
	missing := t.MissingColumns(ColTabularSubject, ColTabularVisit)
	if len(missing) > 0 {
		return nil, fmt.Errorf("tabular data missing required columns: %s", strings.Join(missing, ", "))
	}

	records := make([]TabularRecord, 0, t.Len())
	for i := range t.Rows {
		records = append(records, TabularRecord{
			Subject: t.Value(i, ColTabularSubject),
			Visit:   t.Value(i, ColTabularVisit),
			Group:   t.Value(i, ColTabularGroup),
		})
	}
	return records, nil
}

// GroupAssignments extracts a subject-to-cohort map from a participant
// status table. The first row per subject wins; later rows with a
// different cohort are reported in the returned conflict list.
func GroupAssignments(t *tabfile.Table) (map[string]string, []string, error) {
	missing := t.MissingColumns(ColTabularSubject, ColTabularGroup)
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("participant group data missing required columns: %s", strings.Join(missing, ", "))
	}

	groups := make(map[string]string, t.Len())
	var conflicts []string
	for i := range t.Rows {
		subject := t.Value(i, ColTabularSubject)
		group := t.Value(i, ColTabularGroup)
		if subject == "" {
			continue
		}
		if existing, ok := groups[subject]; ok {
			if existing != group {
				conflicts = append(conflicts, subject)
			}
			continue
		}
		groups[subject] = group
	}
	return groups, conflicts, nil
}
