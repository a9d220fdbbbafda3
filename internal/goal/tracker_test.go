package goal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/testutil"
)

func newTestTracker(t *testing.T) (*Tracker, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tracker, err := NewTracker(db.Storage)
	require.NoError(t, err)
	return tracker, db
}

func TestTracker_Create(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	view, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:          "Emergency fund",
		TargetAmount:  50000,
		CurrentAmount: 5000,
		Currency:      "THB",
		TargetDate:    time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, model.GoalStatusActive, view.Status)
	assert.Equal(t, 5000.0, view.CurrentAmount)
	assert.Equal(t, 45000.0, view.Remaining)
	assert.Equal(t, 10.0, view.Progress)
	assert.Nil(t, view.CompletedAt)
}

func TestTracker_Create_Validation(t *testing.T) {
	tracker, db := newTestTracker(t)
	ctx := context.Background()
	target := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	foreignAccount := db.SeedAccount(testutil.OtherUserID, "Theirs", 0)

	tests := []struct {
		wantErr error
		name    string
		params  CreateParams
	}{
		{
			name:    "missing name",
			params:  CreateParams{TargetAmount: 100, TargetDate: target},
			wantErr: common.ErrValidation,
		},
		{
			name:    "zero target",
			params:  CreateParams{Name: "G", TargetDate: target},
			wantErr: common.ErrValidation,
		},
		{
			name:    "negative initial amount",
			params:  CreateParams{Name: "G", TargetAmount: 100, CurrentAmount: -1, TargetDate: target},
			wantErr: common.ErrValidation,
		},
		{
			name:    "missing target date",
			params:  CreateParams{Name: "G", TargetAmount: 100},
			wantErr: common.ErrValidation,
		},
		{
			name: "foreign linked account",
			params: CreateParams{
				Name: "G", TargetAmount: 100, TargetDate: target,
				LinkedAccountID: foreignAccount.ID,
			},
			wantErr: common.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracker.Create(ctx, testutil.TestUserID, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTracker_UpdateProgress_Accumulates(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	view, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:         "Laptop",
		TargetAmount: 1000,
		TargetDate:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	view, err = tracker.UpdateProgress(ctx, testutil.TestUserID, view.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, 300.0, view.CurrentAmount)
	assert.Equal(t, model.GoalStatusActive, view.Status)

	view, err = tracker.UpdateProgress(ctx, testutil.TestUserID, view.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, 500.0, view.CurrentAmount)
	assert.Equal(t, 50.0, view.Progress)
}

func TestTracker_UpdateProgress_ClampsAndCompletes(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	completedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return completedAt }

	view, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:          "Laptop",
		TargetAmount:  1000,
		CurrentAmount: 950,
		TargetDate:    time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// 950 + 100 overshoots; the balance clamps to the target.
	view, err = tracker.UpdateProgress(ctx, testutil.TestUserID, view.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, view.CurrentAmount)
	assert.Equal(t, model.GoalStatusCompleted, view.Status)
	require.NotNil(t, view.CompletedAt)
	assert.Equal(t, completedAt, *view.CompletedAt)
	assert.Equal(t, 100.0, view.Progress)
	assert.Equal(t, 0.0, view.Remaining)
}

func TestTracker_UpdateProgress_Rejections(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	view, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:         "Laptop",
		TargetAmount: 1000,
		TargetDate:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = tracker.UpdateProgress(ctx, testutil.TestUserID, view.ID, 0)
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = tracker.UpdateProgress(ctx, testutil.TestUserID, view.ID, -50)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = tracker.Complete(ctx, testutil.TestUserID, view.ID)
	require.NoError(t, err)
	_, err = tracker.UpdateProgress(ctx, testutil.TestUserID, view.ID, 10)
	assert.ErrorIs(t, err, common.ErrInvalidOperation)

	cancelled, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:         "Abandoned",
		TargetAmount: 1000,
		TargetDate:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	cancelled.Status = model.GoalStatusCancelled
	_, err = tracker.Update(ctx, testutil.TestUserID, &cancelled.SavingGoal)
	require.NoError(t, err)
	_, err = tracker.UpdateProgress(ctx, testutil.TestUserID, cancelled.ID, 10)
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestTracker_Complete(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	view, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:          "Trip",
		TargetAmount:  1000,
		CurrentAmount: 400,
		TargetDate:    time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Manual completion snaps the balance up to the target.
	view, err = tracker.Complete(ctx, testutil.TestUserID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, view.Status)
	assert.Equal(t, 1000.0, view.CurrentAmount)
	assert.Equal(t, 100.0, view.Progress)
	assert.Equal(t, 0.0, view.Remaining)
	assert.NotNil(t, view.CompletedAt)

	_, err = tracker.Complete(ctx, testutil.TestUserID, view.ID)
	assert.ErrorIs(t, err, common.ErrInvalidOperation)
}

func TestTracker_View_DerivedFigures(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	tracker.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }

	// 60 days out with 6000 remaining needs 3000 per month.
	view, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:          "Motorbike",
		TargetAmount:  10000,
		CurrentAmount: 4000,
		TargetDate:    time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 60, view.DaysLeft)
	assert.Equal(t, 6000.0, view.Remaining)
	assert.Equal(t, 3000.0, view.MonthlyRequired)
	assert.False(t, view.IsOverdue)
}

func TestTracker_View_Overdue(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	tracker.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }

	view, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name:         "Missed",
		TargetAmount: 1000,
		TargetDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, view.IsOverdue)
	assert.Equal(t, 0, view.DaysLeft)
	assert.Equal(t, 0.0, view.MonthlyRequired)

	// Completed goals are never overdue, even past the date.
	view, err = tracker.Complete(ctx, testutil.TestUserID, view.ID)
	require.NoError(t, err)
	assert.False(t, view.IsOverdue)
}

func TestTracker_List_StatusFilter(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	target := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	active, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name: "Active", TargetAmount: 100, TargetDate: target,
	})
	require.NoError(t, err)
	done, err := tracker.Create(ctx, testutil.TestUserID, CreateParams{
		Name: "Done", TargetAmount: 100, TargetDate: target,
	})
	require.NoError(t, err)
	_, err = tracker.Complete(ctx, testutil.TestUserID, done.ID)
	require.NoError(t, err)

	views, err := tracker.List(ctx, testutil.TestUserID, model.GoalStatusActive)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, active.ID, views[0].ID)

	views, err = tracker.List(ctx, testutil.TestUserID, "")
	require.NoError(t, err)
	assert.Len(t, views, 2)
}
