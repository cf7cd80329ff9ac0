package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleResults() (SyncResult, SyncResult, SyncResult) {
	a := SyncResult{
		Users:  EntityCounts{Uploaded: 1},
		Errors: []RecordError{{Entity: EntityUser, RecordID: "a", Op: "upload", Err: ErrNetwork}},
	}
	b := SyncResult{
		DailyLogs: EntityCounts{Downloaded: 3, Merged: 1},
	}
	c := SyncResult{
		Settings: EntityCounts{Deferred: 1},
		Errors:   []RecordError{{Entity: EntitySettings, RecordID: "c", Op: "download", Err: ErrValidation}},
	}
	return a, b, c
}

func TestCombine_Associative(t *testing.T) {
	a, b, c := sampleResults()

	left := Combine(Combine(a, b), c)
	right := Combine(a, Combine(b, c))

	assert.Equal(t, left, right)
}

func TestCombine_CountersCommutative(t *testing.T) {
	a, b, _ := sampleResults()

	ab := Combine(a, b)
	ba := Combine(b, a)

	assert.Equal(t, ab.Users, ba.Users)
	assert.Equal(t, ab.DailyLogs, ba.DailyLogs)
	assert.Equal(t, ab.Settings, ba.Settings)
	assert.ElementsMatch(t, ab.Errors, ba.Errors)
}

func TestCombine_DoesNotAliasInputs(t *testing.T) {
	a, _, c := sampleResults()

	out := Combine(a, c)
	out.Errors[0].RecordID = "changed"

	assert.Equal(t, "a", a.Errors[0].RecordID)
}

func TestCombine_ZeroIdentity(t *testing.T) {
	a, _, _ := sampleResults()

	assert.Equal(t, a, Combine(SyncResult{}, a))
	assert.Equal(t, a, Combine(a, SyncResult{}))
}

func TestSyncResult_TotalOperations(t *testing.T) {
	a, b, c := sampleResults()
	r := CombineAll(a, b, c)

	assert.Equal(t, 6, r.TotalOperations())
	assert.Equal(t, r.Users.Total()+r.DailyLogs.Total()+r.Settings.Total(), r.TotalOperations())
	assert.True(t, r.HasErrors())
	assert.Len(t, r.Errors, 2)
	assert.False(t, SyncResult{}.HasErrors())
}

func TestCountResult(t *testing.T) {
	r := CountResult(EntityDailyLog, EntityCounts{Uploaded: 2})

	assert.Equal(t, 2, r.DailyLogs.Uploaded)
	assert.Equal(t, EntityCounts{Uploaded: 2}, r.Counts(EntityDailyLog))
	assert.Equal(t, EntityCounts{}, r.Counts(EntityUser))
}

func TestErrorResult(t *testing.T) {
	r := ErrorResult(RecordError{Entity: EntityUser, RecordID: "u1", Op: "upload", Err: errors.New("x")})

	assert.True(t, r.HasErrors())
	assert.Equal(t, 0, r.TotalOperations())
}

func TestSyncPhase_IsTerminal(t *testing.T) {
	assert.False(t, PhaseStarting.IsTerminal())
	assert.False(t, PhaseUploading.IsTerminal())
	assert.False(t, PhaseDownloading.IsTerminal())
	assert.True(t, PhaseCompleted.IsTerminal())
	assert.True(t, PhaseError.IsTerminal())
}

func TestSyncStatus_String(t *testing.T) {
	assert.Equal(t, "completed", SyncStatus{Phase: PhaseCompleted}.String())
	assert.Equal(t, "error: sync error", SyncStatus{Phase: PhaseError, Err: ErrSync}.String())
}
