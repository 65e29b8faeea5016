package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilitiesList(t *testing.T) {
	opts := jsonOpts(map[string]string{"cavy": "/opt/cavy/bin/cavy"})

	out, err := execute(t, opts, NewCapabilitiesCommand)
	require.NoError(t, err)

	var infos []CapabilityInfo
	decodeResponse(t, out, &infos)

	byName := make(map[string]CapabilityInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	require.Contains(t, byName, "cavy")
	assert.True(t, byName["cavy"].Available)
	assert.Equal(t, "/opt/cavy/bin/cavy", byName["cavy"].Path)
	assert.Equal(t, "cavy 1.0", byName["cavy"].Version)

	assert.False(t, byName["labber"].Available)
	assert.Equal(t, "not loaded", byName["labber"].Version)
	assert.False(t, byName["pdflatex"].Available)
}

func TestCapabilitiesText(t *testing.T) {
	out, err := execute(t, textOpts(map[string]string{"qasm-sampler": "/usr/bin/qasm-sampler"}), NewCapabilitiesCommand)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ qasm-sampler")
	assert.Contains(t, out, "/usr/bin/qasm-sampler")
	assert.Contains(t, out, "✗ pdflatex")
	assert.Contains(t, out, "install: https://www.latex-project.org/get/")
}

func TestCapabilitiesRequire(t *testing.T) {
	opts := jsonOpts(map[string]string{"cavy": "/opt/cavy/bin/cavy"})

	out, err := execute(t, opts, NewCapabilitiesCommand, "cavy")
	require.NoError(t, err)
	var infos []CapabilityInfo
	decodeResponse(t, out, &infos)
	require.Len(t, infos, 1)
	assert.Equal(t, "cavy", infos[0].Name)

	out, err = execute(t, jsonOpts(nil), NewCapabilitiesCommand, "cavy", "__unsatisfiable__")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E302", resp.Error.Code)
}
