package carrier_test

import (
	"testing"

	"github.com/parcelforge/shipping/pkg/carrier"
	"github.com/parcelforge/shipping/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(mock.New("fedex"))
	registry.Register(mock.New("ups"))

	c, err := registry.Get("fedex")
	require.NoError(t, err)
	assert.Equal(t, "fedex", c.ID())

	assert.True(t, registry.Has("ups"))
	assert.False(t, registry.Has("dhl"))
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := carrier.NewRegistry()

	_, err := registry.Get("nope")

	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
	assert.Contains(t, err.Error(), "nope")
}

func TestRegistry_All_PreservesRegistrationOrder(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(mock.New("charlie"))
	registry.Register(mock.New("alpha"))
	registry.Register(mock.New("bravo"))

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "charlie", all[0].ID())
	assert.Equal(t, "alpha", all[1].ID())
	assert.Equal(t, "bravo", all[2].ID())
}

func TestRegistry_Register_OverrideKeepsPosition(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(mock.New("a"))
	registry.Register(mock.New("b"))

	replacement := mock.New("a")
	registry.Register(replacement)

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID())
	assert.Equal(t, 2, registry.Count())

	got, err := registry.Get("a")
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}

func TestRegistry_Infos(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(mock.New("fedex"))

	infos := registry.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, "fedex", infos[0].ID)
	assert.Equal(t, []string{"STANDARD", "EXPRESS"}, infos[0].Services)
}
