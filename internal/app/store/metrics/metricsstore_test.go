package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/volcani/experimenthub/internal/app/store/metrics"
	"github.com/volcani/experimenthub/internal/testutil"
)

func TestFetchCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchCounts(ctx, db)
	if counts != (metricsstore.Counts{}) {
		t.Errorf("expected all zero counts, got %+v", counts)
	}
}

func TestFetchCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dana := fixtures.CreateApprovedUser(ctx, "Dana", "Levi", "dana@example.com")
	fixtures.CreateUser(ctx, "Noa", "Cohen", "noa@example.com", false)
	fixtures.CreateUser(ctx, "Avi", "Mizrahi", "avi@example.com", false)

	now := time.Now()
	fixtures.CreateExperiment(ctx, dana.ID, "one", now)
	fixtures.CreateExperiment(ctx, dana.ID, "two", now)

	counts := metricsstore.FetchCounts(ctx, db)
	if counts.Users != 3 {
		t.Errorf("Users: got %d, want 3", counts.Users)
	}
	if counts.PendingUsers != 2 {
		t.Errorf("PendingUsers: got %d, want 2", counts.PendingUsers)
	}
	if counts.Experiments != 2 {
		t.Errorf("Experiments: got %d, want 2", counts.Experiments)
	}
}
