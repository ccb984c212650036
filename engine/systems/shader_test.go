package systems

import (
	"fmt"
	"testing"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx/gfxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSources map[string]string

func (m mapSources) ShaderSource(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrAssetNotFound, name)
	}
	return src, nil
}

var testSources = mapSources{
	"quad_vs.glsl": "#version 450\nvoid main() {}\n",
	"quad_fs.glsl": "#version 450\nout vec4 color;\nvoid main() {}\n",
}

func TestNewShaderSystemRequiresSources(t *testing.T) {
	_, err := NewShaderSystem(nil)
	assert.Error(t, err)
}

func TestCreateProgram(t *testing.T) {
	ctx := gfxtest.New()
	ss, err := NewShaderSystem(testSources)
	require.NoError(t, err)

	p, err := ss.CreateProgram(ctx, "quad_vs.glsl", "quad_fs.glsl", []string{"ViewProjection", "DrawID"})
	require.NoError(t, err)
	assert.Equal(t, int32(0), p.Location("ViewProjection"))
	assert.Equal(t, int32(1), p.Location("DrawID"))
	assert.Equal(t, int32(-1), p.Location("Missing"))

	// Stages are not needed once the program is linked.
	assert.Equal(t, 0, ctx.LiveShaders())
	assert.Equal(t, 1, ctx.LivePrograms())

	ss.DestroyProgram(ctx, p)
	ss.DestroyProgram(ctx, p)
	assert.Equal(t, 0, ctx.LiveObjects())
}

func TestCreateProgramFailuresLeaveNothingBehind(t *testing.T) {
	cases := map[string]struct {
		setup func(ctx *gfxtest.Context)
		vs    string
		want  error
	}{
		"missing source": {
			setup: func(*gfxtest.Context) {},
			vs:    "nope_vs.glsl",
			want:  core.ErrShaderCompile,
		},
		"compile error": {
			setup: func(ctx *gfxtest.Context) { ctx.FailCompile = "out vec4" },
			vs:    "quad_vs.glsl",
			want:  core.ErrShaderCompile,
		},
		"link error": {
			setup: func(ctx *gfxtest.Context) { ctx.FailLink = true },
			vs:    "quad_vs.glsl",
			want:  core.ErrShaderLink,
		},
		"missing uniform": {
			setup: func(ctx *gfxtest.Context) { ctx.MissingUniforms = []string{"DrawID"} },
			vs:    "quad_vs.glsl",
			want:  core.ErrUniformNotFound,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := gfxtest.New()
			tc.setup(ctx)
			ss, err := NewShaderSystem(testSources)
			require.NoError(t, err)

			_, err = ss.CreateProgram(ctx, tc.vs, "quad_fs.glsl", []string{"ViewProjection", "DrawID"})
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, ctx.LiveObjects())
		})
	}
}

func TestShaderSystemShutdownDeletesLeftovers(t *testing.T) {
	ctx := gfxtest.New()
	ss, err := NewShaderSystem(testSources)
	require.NoError(t, err)

	_, err = ss.CreateProgram(ctx, "quad_vs.glsl", "quad_fs.glsl", nil)
	require.NoError(t, err)
	require.NoError(t, ss.Shutdown(ctx))
	assert.Equal(t, 0, ctx.LivePrograms())
}
