package memory

import (
	"testing"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault/tests"
)

func TestVaultMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
