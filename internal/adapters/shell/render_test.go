package shell_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/shell"
	"go.trai.ch/devshell/internal/core/domain"
)

func TestRender(t *testing.T) {
	cwd := filepath.FromSlash("/work/repo")

	tests := []struct {
		name     string
		cmd      domain.Command
		captured bool
		want     string
	}{
		{
			name: "plain",
			cmd:  domain.Command{Args: []string{"echo"}},
			want: "echo",
		},
		{
			name: "arguments are quoted",
			cmd:  domain.Command{Args: []string{"echo", "$AA"}},
			want: "echo '$AA'",
		},
		{
			name: "extra env",
			cmd:  domain.Command{Args: []string{"echo"}, Env: map[string]string{"A": "B"}},
			want: "A=B echo",
		},
		{
			name: "extra env values are quoted and sorted",
			cmd:  domain.Command{Args: []string{"echo"}, Env: map[string]string{"Z": "1", "A": "x y"}},
			want: "'A=x y' Z=1 echo",
		},
		{
			name: "extra paths",
			cmd:  domain.Command{Args: []string{"echo"}, ExtraPaths: []string{"path1", "path2"}},
			want: `PATH="path1:path2:${PATH}" echo`,
		},
		{
			name:     "captured",
			cmd:      domain.Command{Args: []string{"echo"}},
			captured: true,
			want:     "echo &> CAPTURED",
		},
		{
			name: "same working directory",
			cmd:  domain.Command{Args: []string{"ls"}, Dir: cwd},
			want: "ls",
		},
		{
			name: "other working directory",
			cmd:  domain.Command{Args: []string{"ls"}, Dir: filepath.Join(cwd, "sub dir")},
			want: "cd 'sub dir' && ls",
		},
		{
			name: "everything",
			cmd: domain.Command{
				Args:       []string{"uv", "run", "pytest", "-k", "not slow"},
				Dir:        filepath.Join(cwd, "py"),
				Env:        map[string]string{"UV_PYTHON_DOWNLOADS": "never"},
				ExtraPaths: []string{"/opt/bin"},
			},
			captured: true,
			want:     `cd py && UV_PYTHON_DOWNLOADS=never PATH="/opt/bin:${PATH}" uv run pytest -k 'not slow' &> CAPTURED`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shell.Render(&tt.cmd, cwd, tt.captured)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Invalid(t *testing.T) {
	_, err := shell.Render(&domain.Command{Args: []string{"echo"}, Env: map[string]string{"PATH": "/bin"}}, "/", false)
	require.ErrorIs(t, err, domain.ErrPathInExtraEnv)

	_, err = shell.Render(&domain.Command{Args: []string{"echo"}, ExtraPaths: []string{"a:b"}}, "/", false)
	require.ErrorIs(t, err, domain.ErrColonInPath)
}
