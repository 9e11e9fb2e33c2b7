package chrono

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

func TestStandardImplLocation(t *testing.T) {
	clock, err := NewStandardImpl("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	require.Equal(t, "Asia/Ho_Chi_Minh", clock.Now().Location().String())

	local, err := NewStandardImpl("")
	require.NoError(t, err)
	require.Equal(t, time.Local, local.Location())

	_, err = NewStandardImpl("Not/A_Zone")
	require.Error(t, err)
}

func TestFixedImpl(t *testing.T) {
	instant := time.Date(2024, 3, 1, 22, 22, 0, 0, time.UTC)
	clock := FixedImpl{Time: instant}
	require.Equal(t, instant, clock.Now())
	require.Equal(t, time.UTC, clock.Location())
}
