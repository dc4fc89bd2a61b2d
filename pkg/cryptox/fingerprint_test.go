package cryptox_test

import (
	"testing"

	"github.com/dimbox/dimbox/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := cryptox.Fingerprint("A1")
	require.Len(t, a, cryptox.FingerprintLen)
	require.Equal(t, a, cryptox.Fingerprint("A1"), "fingerprint must be deterministic")
	require.NotEqual(t, a, cryptox.Fingerprint("A2"))
	require.Empty(t, cryptox.Fingerprint(""))
}
