package main

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

func runList(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintln(stderr, HelpListUsage)
		return ExitCodeUsageError
	}

	reg, err := newRegistry(zap.NewNop())
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgListFailed, err)
		return ExitCodeError
	}

	// Engines are listed by name, so nothing needs to be loaded.
	for _, name := range reg.Identifiers() {
		exts := reg.ExtensionsForName(name)
		if len(exts) == 0 {
			continue
		}
		fmt.Fprintf(stdout, ListLineFormat, displayName(name), strings.Join(exts, ListExtSeparator))
	}
	return ExitCodeSuccess
}

// displayName drops the "Template" suffix of an engine identifier.
func displayName(identifier string) string {
	if short := strings.TrimSuffix(identifier, EngineIdentSuffix); short != "" {
		return short
	}
	return identifier
}
