package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papercal/internal/model"
)

func timed(title string, start, end string) model.Instance {
	day := "2024-03-02T"
	s, err := time.Parse(time.RFC3339, day+start+":00Z")
	if err != nil {
		panic(err)
	}
	e, err := time.Parse(time.RFC3339, day+end+":00Z")
	if err != nil {
		panic(err)
	}
	return model.Instance{UID: title, Title: title, Start: s, End: e}
}

func TestLayout_Empty(t *testing.T) {
	t.Parallel()
	out := Layout(nil)
	assert.Empty(t, out)
}

func TestLayout_SingleEventGetsFullWidth(t *testing.T) {
	t.Parallel()
	out := Layout([]model.Instance{timed("a", "09:00", "10:00")})
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].Layer)
	assert.Equal(t, 1.0, out[0].WidthFrac)
}

func TestLayout_LongerEventClaimsBackLayer(t *testing.T) {
	t.Parallel()
	out := Layout([]model.Instance{
		timed("short", "09:00", "09:30"),
		timed("long", "09:00", "12:00"),
	})
	require.Len(t, out, 2)

	byTitle := make(map[string]model.LayeredInstance)
	for _, le := range out {
		byTitle[le.Title] = le
	}
	assert.Equal(t, 0, byTitle["long"].Layer)
	assert.Equal(t, 1.0, byTitle["long"].WidthFrac)
	assert.Equal(t, 1, byTitle["short"].Layer)
	assert.Equal(t, 0.5, byTitle["short"].WidthFrac)
}

func TestLayout_TransitiveClusterSharesDepth(t *testing.T) {
	t.Parallel()
	// a-b overlap, b-c overlap, a-c do not: one cluster through b.
	out := Layout([]model.Instance{
		timed("a", "09:00", "10:00"),
		timed("b", "09:30", "10:30"),
		timed("c", "10:15", "11:15"),
	})
	require.Len(t, out, 3)

	byTitle := make(map[string]model.LayeredInstance)
	for _, le := range out {
		byTitle[le.Title] = le
	}
	// Equal durations: start order wins. a takes layer 0, b must open
	// layer 1, c fits back on layer 0 next to a.
	assert.Equal(t, 0, byTitle["a"].Layer)
	assert.Equal(t, 1, byTitle["b"].Layer)
	assert.Equal(t, 0, byTitle["c"].Layer)
	assert.Equal(t, 0.5, byTitle["b"].WidthFrac)
	assert.Equal(t, 1.0, byTitle["a"].WidthFrac)
}

func TestLayout_DisjointClustersAreIndependent(t *testing.T) {
	t.Parallel()
	out := Layout([]model.Instance{
		timed("am1", "09:00", "10:00"),
		timed("am2", "09:00", "10:00"),
		timed("pm", "14:00", "15:00"),
	})
	require.Len(t, out, 3)
	for _, le := range out {
		if le.Title == "pm" {
			// The crowded morning cluster must not narrow the lone
			// afternoon event.
			assert.Equal(t, 0, le.Layer)
			assert.Equal(t, 1.0, le.WidthFrac)
		}
	}
}

func TestLayout_NoCollisionAndWidthInvariants(t *testing.T) {
	t.Parallel()
	in := []model.Instance{
		timed("a", "08:00", "12:00"),
		timed("b", "08:30", "09:30"),
		timed("c", "09:00", "11:00"),
		timed("d", "10:45", "11:30"),
		timed("e", "13:00", "14:00"),
		timed("f", "13:15", "13:45"),
	}
	out := Layout(in)
	require.Len(t, out, len(in))

	// No two instances on the same layer may overlap.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[i].Layer == out[j].Layer {
				assert.False(t, out[i].Overlaps(out[j].Instance),
					"%s and %s share layer %d but overlap", out[i].Title, out[j].Title, out[i].Layer)
			}
		}
	}

	// Every width fraction lies in (0, 1], strictly shrinking per layer.
	for _, le := range out {
		assert.Greater(t, le.WidthFrac, 0.0)
		assert.LessOrEqual(t, le.WidthFrac, 1.0)
	}
	for i := 0; i < len(out); i++ {
		for j := 0; j < len(out); j++ {
			if out[i].Overlaps(out[j].Instance) && out[i].Layer < out[j].Layer {
				assert.Greater(t, out[i].WidthFrac, out[j].WidthFrac)
			}
		}
	}
}
