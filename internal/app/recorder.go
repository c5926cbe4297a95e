package app

import "carbon/internal/domain"

// Recorder receives counters about account and activity events.
type Recorder interface {
	RecordActivity(kind domain.EntryKind, c domain.Category)
	RecordRegistration()
	RecordLogin(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordActivity(domain.EntryKind, domain.Category) {}
func (nopRecorder) RecordRegistration()                              {}
func (nopRecorder) RecordLogin(bool)                                 {}
