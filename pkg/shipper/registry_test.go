package shipper_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/mock"
)

func TestRegistry_Register(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("test-shipper"))

	got, err := registry.Get("test-shipper")
	require.NoError(t, err, "shipper should be registered")
	assert.Equal(t, "test-shipper", got.Name())
}

func TestRegistry_Register_Override(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("test-shipper"))
	assert.Equal(t, 1, registry.Count())

	registry.Register(mock.New("test-shipper"))
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := shipper.NewRegistry()

	_, err := registry.Get("nonexistent")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierNotFound))
	assert.Equal(t, shipper.KindNotFound, shipper.KindOf(err))
}

func TestRegistry_Get_ByAlias(t *testing.T) {
	registry := shipper.NewRegistry()
	registry.Register(mock.New("canpar"), "Canpar", "Canpar Express", "CANPAR")

	for _, name := range []string{"canpar", "CANPAR", "Canpar Express", "canpar   express", "CaNpAr"} {
		got, err := registry.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, "canpar", got.Name())
	}
}

func TestRegistry_Aliases(t *testing.T) {
	registry := shipper.NewRegistry()
	registry.Register(mock.New("canpar"), "Canpar Express")
	registry.Register(mock.New("eshipplus"), "eShip Plus")

	assert.Equal(t, []string{"canpar", "canpar express"}, registry.Aliases("Canpar Express"))
	assert.Nil(t, registry.Aliases("fedex"))
}

func TestRegistry_All(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("shipper-a"))
	registry.Register(mock.New("shipper-b"))
	registry.Register(mock.New("shipper-c"))

	assert.Len(t, registry.All(), 3)
}

func TestRegistry_Names(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("eshipplus"))
	registry.Register(mock.New("canpar"))

	assert.Equal(t, []string{"canpar", "eshipplus"}, registry.Names())
}

func TestRegistry_Count(t *testing.T) {
	registry := shipper.NewRegistry()
	assert.Equal(t, 0, registry.Count())

	registry.Register(mock.New("shipper-a"))
	assert.Equal(t, 1, registry.Count())

	registry.Register(mock.New("shipper-b"))
	assert.Equal(t, 2, registry.Count())
}
