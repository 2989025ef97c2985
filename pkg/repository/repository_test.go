package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/repository/firestore"
	"github.com/ledgerline/refundgate/pkg/repository/memory"
	"github.com/m-mizutani/gt"
)

// runRepositoryTest executes the suite against the memory backend always and
// against Firestore when TEST_FIRESTORE_PROJECT is set.
func runRepositoryTest(t *testing.T, test func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		test(t, func(t *testing.T) interfaces.Repository {
			return memory.New()
		})
	})

	t.Run("firestore", func(t *testing.T) {
		projectID := os.Getenv("TEST_FIRESTORE_PROJECT")
		if projectID == "" {
			t.Skip("TEST_FIRESTORE_PROJECT is not set")
		}
		databaseID := os.Getenv("TEST_FIRESTORE_DATABASE")

		test(t, func(t *testing.T) interfaces.Repository {
			prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
			repo, err := firestore.New(context.Background(), projectID, databaseID,
				firestore.WithCollectionPrefix(prefix))
			gt.NoError(t, err).Required()
			t.Cleanup(func() {
				gt.NoError(t, repo.Close())
			})
			return repo
		})
	})
}
