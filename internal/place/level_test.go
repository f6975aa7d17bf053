package place

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_ParentLadder(t *testing.T) {
	t.Parallel()
	l := Adm5
	var chain []Level
	for {
		chain = append(chain, l)
		p, ok := l.Parent()
		if !ok {
			break
		}
		l = p
	}
	assert.Equal(t, []Level{Adm5, Adm4, Adm3, Adm2, Adm1, Countries, World}, chain)
}

func TestLevel_Rank(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, World.Rank())
	assert.Equal(t, 6, Adm5.Rank())
	assert.Equal(t, -1, Level("country").Rank())
	_, err := ParseLevel("country")
	assert.Error(t, err)
	l, err := ParseLevel("adm3")
	require.NoError(t, err)
	assert.Equal(t, Adm3, l)
}

func TestNewVertex_NameFallback(t *testing.T) {
	t.Parallel()
	v := NewVertex(Adm1, "US/FL", "", []string{"Florida", "FL"}, Geolocation{}, 10)
	assert.Equal(t, "Florida", v.Name)
	assert.Equal(t, []string{"Florida", "FL"}, v.AlternateNames)

	v = NewVertex(Adm1, "US/FL", "State of Florida", []string{"Florida"}, Geolocation{}, -5)
	assert.Equal(t, "State of Florida", v.Name)
	assert.Contains(t, v.AlternateNames, "State of Florida")
	assert.Equal(t, int64(0), v.Population)

	v = NewVertex(Adm1, "US/FL", "Florida", []string{""}, Geolocation{}, 0)
	assert.Equal(t, []string{"Florida"}, v.AlternateNames)
}

func TestRoot(t *testing.T) {
	t.Parallel()
	r := Root()
	assert.Equal(t, World, r.Level)
	assert.Equal(t, RootKey, r.GeonameID)
	assert.Contains(t, r.AlternateNames, r.Name)
}
