package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSiteIDAddSub(t *testing.T) {
	a := SiteID{IDX: 3, IDY: -2}
	d := SiteID{IDX: 1, IDY: 1}
	require.Equal(t, SiteID{IDX: 4, IDY: -1}, a.Add(d))
	require.Equal(t, d, a.Add(d).Sub(a))
}

func TestSiteIDAngle(t *testing.T) {
	require.InDelta(t, 0.0, SiteID{IDX: 1, IDY: 0}.Angle(), 1e-9)
	require.InDelta(t, math.Pi/2, SiteID{IDX: 0, IDY: 1}.Angle(), 1e-9)
	require.InDelta(t, math.Pi, SiteID{IDX: -1, IDY: 0}.Angle(), 1e-9)
}

func TestSiteIDL1(t *testing.T) {
	require.Equal(t, 5, SiteID{IDX: 0, IDY: 0}.L1(SiteID{IDX: 2, IDY: 3}))
}
