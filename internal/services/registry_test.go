package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{ name string }

func TestRegisterAndGetService(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RegisterService("greeter", &greeter{name: "hi"})

	g, err := GetService[*greeter]("greeter")
	require.NoError(t, err)
	assert.Equal(t, "hi", g.name)

	_, err = GetService[string]("greeter")
	assert.ErrorContains(t, err, "wrong type")

	_, err = GetService[*greeter]("missing")
	assert.ErrorContains(t, err, "not found")

	assert.Equal(t, []string{"greeter"}, List())
}
