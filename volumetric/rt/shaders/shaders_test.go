package shaders

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesEmbedded(t *testing.T) {
	for name, src := range map[string]string{
		"scattering": ScatteringWGSL,
		"blur":       BlurWGSL,
		"composite":  CompositeWGSL,
		"fullscreen": FullscreenWGSL,
	} {
		assert.NotEmpty(t, strings.TrimSpace(src), name)
	}
	assert.Contains(t, FullscreenWGSL, "fn vs_main")
	assert.Contains(t, FullscreenWGSL, "fn fs_main")
}

func TestKernelsDeclareTheirBindings(t *testing.T) {
	for _, k := range Kernels() {
		assert.Contains(t, k.Source, "@compute", k.Name)
		assert.Contains(t, k.Source, "fn "+EntryPoint+"(", k.Name)
		for _, u := range k.Uniforms {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(u) + `\s*:`)
			assert.Regexp(t, re, k.Source, "%s uniform %s", k.Name, u)
		}
		for i, tex := range k.Textures {
			binding := fmt.Sprintf("@binding(%d) var %s", i+1, tex)
			assert.Contains(t, k.Source, binding, k.Name)
		}
	}
}

func TestScatteringUniformOrder(t *testing.T) {
	src := Scattering.Source
	start := strings.Index(src, "struct Uniforms")
	end := strings.Index(src[start:], "};")
	require.Positive(t, start)
	require.Positive(t, end)
	body := src[start : start+end]

	last := -1
	for _, name := range Scattering.Uniforms {
		idx := strings.Index(body, "    "+name+":")
		require.GreaterOrEqual(t, idx, 0, name)
		assert.Greater(t, idx, last, "%s out of order", name)
		last = idx
	}
}
