package activation

import (
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"go.trai.ch/devshell/internal/core/domain"
)

// ExportLines renders vars as `export KEY='value'` lines. PATH is prepended to the
// inherited search path instead of replacing it. Keys that are not shell variable
// names are skipped.
func ExportLines(vars []string) []string {
	lines := make([]string, 0, len(vars))
	for _, kv := range vars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !domain.IsEnvName(key) {
			continue
		}
		if key == "PATH" {
			lines = append(lines, "export PATH="+shellescape.Quote(value)+`"${PATH:+:${PATH}}"`)
			continue
		}
		lines = append(lines, "export "+key+"="+shellescape.Quote(value))
	}
	return lines
}

// Script renders the rc script of an interactive shell: the user's bashrc, the exported
// environment, then every activation step in order. A failing step prints which step
// failed and exits the shell with the step's status.
func Script(env *domain.Environment) string {
	var b strings.Builder

	b.WriteString("# devshell environment " + env.ID + " (" + env.Platform.String() + ")\n")
	b.WriteString("[ -n \"$PS1\" ] && [ -e ~/.bashrc ] && source ~/.bashrc\n")
	b.WriteString("export DEVSHELL_ENV=" + shellescape.Quote(env.ID) + "\n")
	for _, line := range ExportLines(env.Vars) {
		b.WriteString(line + "\n")
	}

	total := len(env.Activation)
	for _, step := range env.Activation {
		notice := fmt.Sprintf("devshell: activation step %d/%d failed: %s", step.Index, total, firstLine(step.Command))
		fmt.Fprintf(&b, "{ %s\n} || { __devshell_rc=$?; echo %s >&2; exit $__devshell_rc; }\n",
			step.Command, shellescape.Quote(notice))
	}

	return b.String()
}

// firstLine shortens a multi-line statement to its opening line.
func firstLine(cmd string) string {
	if line, _, ok := strings.Cut(cmd, "\n"); ok {
		return line + " ..."
	}
	return cmd
}
