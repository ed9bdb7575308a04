package tui

import (
	"github.com/MKhiriev/go-offline-sync/models"
)

// connectivityMsg carries one value of the monitor subscription. ok is
// false once the subscription is closed.
type connectivityMsg struct {
	connected bool
	ok        bool
}

// recordsMsg carries one snapshot of the local store watch.
type recordsMsg struct {
	records []models.Record
	ok      bool
}

type checkDoneMsg struct {
	connected bool
}

type syncStartedMsg struct {
	progress <-chan models.RetryProgress
	err      error
}

type syncProgressMsg struct {
	progress models.RetryProgress
	ok       bool
}

type refreshDoneMsg struct {
	err error
}

type itemSavedMsg struct {
	record models.Record
	err    error
}

type itemDeletedMsg struct {
	err error
}

type clearStatusMsg struct{}
