package core_test

import (
	"testing"

	"labqms/testutil"
)

func TestCoreStaysOffTransportAndStorage(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, "labqms/internal/core", testutil.Under(
		"labqms/internal/adapters",
		"labqms/internal/infra",
		"labqms/internal/blob",
		"labqms/internal/audit",
		"labqms/internal/export",
		"labqms/internal/report",
		"github.com/gin-gonic/gin",
		"github.com/aws",
		"github.com/jackc/pgx/v5",
		"modernc.org/sqlite",
	), "the service is driven through domain ports only")
}
