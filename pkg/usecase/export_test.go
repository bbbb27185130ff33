package usecase

import "time"

// SetNow is exported for testing with a fixed clock
func (uc *StatsUseCase) SetNow(now func() time.Time) {
	uc.now = now
}

// SetNow is exported for testing with a fixed clock
func (uc *IssueUseCase) SetNow(now func() time.Time) {
	uc.now = now
}

// TopName is exported for testing
var TopName = topName

// FormatDuration is exported for testing
var FormatDuration = formatDuration
