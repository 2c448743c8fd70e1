package domain

// Command is a process invocation handed to an executor.
type Command struct {
	// Name labels the command in logs and telemetry.
	Name string

	// Args is the argument vector; Args[0] is the executable.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra variables layered over the environment. PATH is not allowed here.
	Env map[string]string

	// ExtraPaths are prepended to PATH in order.
	ExtraPaths []string

	// Interactive attaches the process to the terminal's standard input.
	Interactive bool
}
