package memory_test

import (
	"testing"

	"github.com/dimbox/dimbox/internal/tokenstore"
	"github.com/dimbox/dimbox/internal/tokenstore/drivers/memory"
	"github.com/dimbox/dimbox/internal/tokenstore/storetest"
	"github.com/dimbox/dimbox/pkg/slogx"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) tokenstore.Store {
		return memory.NewStore(slogx.Discard())
	})
}
