// Package storetest is the behavior every tokenstore driver must share.
package storetest

import (
	"testing"

	"github.com/dimbox/dimbox/internal/tokenstore"
	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) tokenstore.Store) {
	t.Run("empty store", func(t *testing.T) {
		s := open(t)
		require.Empty(t, s.Access())
		require.Empty(t, s.Refresh())
		_, ok := s.Profile()
		require.False(t, ok)
	})

	t.Run("save both tokens", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SaveTokens(financesdk.TokenPair{Access: "A1", Refresh: "R1"}))
		require.Equal(t, "A1", s.Access())
		require.Equal(t, "R1", s.Refresh())
	})

	t.Run("absent values are left untouched", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SaveTokens(financesdk.TokenPair{Access: "A1", Refresh: "R1"}))
		require.NoError(t, s.SaveTokens(financesdk.TokenPair{Access: "A2"}))
		require.Equal(t, "A2", s.Access())
		require.Equal(t, "R1", s.Refresh())

		require.NoError(t, s.SaveTokens(financesdk.TokenPair{Refresh: "R2"}))
		require.Equal(t, "A2", s.Access())
		require.Equal(t, "R2", s.Refresh())
	})

	t.Run("tokens are opaque", func(t *testing.T) {
		s := open(t)
		odd := "not a jwt; ' OR 1=1 --"
		require.NoError(t, s.SaveTokens(financesdk.TokenPair{Access: odd}))
		require.Equal(t, odd, s.Access())
	})

	t.Run("profile round trip", func(t *testing.T) {
		s := open(t)
		in := &financesdk.UserProfile{
			ID:         7,
			Username:   "alice",
			Role:       financesdk.RoleAdmin,
			Plan:       financesdk.PlanPremium,
			GoalName:   "Trip",
			GoalAmount: decimal.RequireFromString("1500.50"),
		}
		require.NoError(t, s.SaveProfile(in))

		out, ok := s.Profile()
		require.True(t, ok)
		require.Equal(t, in.Username, out.Username)
		require.Equal(t, in.Role, out.Role)
		require.Equal(t, in.Plan, out.Plan)
		require.True(t, in.GoalAmount.Equal(out.GoalAmount))

		require.NoError(t, s.SaveProfile(nil))
		_, ok = s.Profile()
		require.False(t, ok)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.SaveTokens(financesdk.TokenPair{Access: "A1", Refresh: "R1"}))
		require.NoError(t, s.SaveProfile(&financesdk.UserProfile{Username: "alice"}))

		require.NoError(t, s.Clear())
		require.Empty(t, s.Access())
		require.Empty(t, s.Refresh())
		_, ok := s.Profile()
		require.False(t, ok)

		require.NoError(t, s.Clear(), "clearing an empty store is fine")
	})
}
