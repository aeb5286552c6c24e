package model

import "errors"

var (
	// ErrDuplicatePage is returned when a report already holds a result for a URL.
	ErrDuplicatePage = errors.New("page already present in report")

	// ErrReportFinalized is returned when a finalized report is modified.
	ErrReportFinalized = errors.New("report is finalized")
)
