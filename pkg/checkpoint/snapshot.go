// Package checkpoint persists run progress so an interrupted distribution can
// resume without reprocessing recipients that already reached a terminal
// status.
package checkpoint

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nematoken/soldrop/pkg/recipient"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// Counters holds aggregate per-status totals for a run.
type Counters struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// RecipientStatus is the persisted per-recipient progress record.
type RecipientStatus struct {
	Address string           `json:"address"`
	Amount  decimal.Decimal  `json:"amount"`
	Status  recipient.Status `json:"status"`
}

// Snapshot is a full snapshot of run progress. It is written in full after
// every batch and is usable for resume only when its phase and recipient
// count exactly match the current run.
type Snapshot struct {
	Version        int               `json:"version"`
	Phase          int               `json:"phase"`
	SavedAt        time.Time         `json:"saved_at"`
	RecipientCount int               `json:"recipient_count"`
	Counters       Counters          `json:"counters"`
	Statuses       []RecipientStatus `json:"statuses"`
}

// NewSnapshot captures the current status of every recipient plus aggregate
// counters into a persistable snapshot.
func NewSnapshot(phase int, recipients []*recipient.Recipient, counters Counters) Snapshot {
	statuses := make([]RecipientStatus, 0, len(recipients))

	for _, r := range recipients {
		statuses = append(statuses, RecipientStatus{
			Address: r.Address,
			Amount:  r.Amount,
			Status:  r.Status,
		})
	}

	return Snapshot{
		Version:        SnapshotVersion,
		Phase:          phase,
		SavedAt:        time.Now().UTC(),
		RecipientCount: len(recipients),
		Counters:       counters,
		Statuses:       statuses,
	}
}

// Restore applies persisted terminal statuses onto the in-memory recipient
// list, matching by address. Pending entries and unknown addresses are left
// untouched. It returns the number of recipients restored to a terminal
// status.
func (s *Snapshot) Restore(recipients []*recipient.Recipient) int {
	byAddress := make(map[string]recipient.Status, len(s.Statuses))

	for _, st := range s.Statuses {
		if st.Status.Valid() && st.Status.Terminal() {
			byAddress[st.Address] = st.Status
		}
	}

	restored := 0

	for _, r := range recipients {
		status, ok := byAddress[r.Address]
		if !ok {
			continue
		}

		r.Status = status
		restored++
	}

	return restored
}
