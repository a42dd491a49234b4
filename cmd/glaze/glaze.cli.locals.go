package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/ohler55/ojg/oj"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// readLocalsFile decodes a locals file by extension. Unknown extensions are
// read as YAML, which also accepts JSON.
func readLocalsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var decoded any
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtTOML:
		err = toml.Unmarshal(data, &decoded)
	case ExtJSON:
		decoded, err = oj.Parse(data)
	default:
		err = yaml.Unmarshal(data, &decoded)
	}
	if err != nil {
		return nil, err
	}
	return asLocals(decoded)
}

// parseVars decodes the --vars JSON object.
func parseVars(s string) (map[string]any, error) {
	decoded, err := oj.ParseString(s)
	if err != nil {
		return nil, err
	}
	return asLocals(decoded)
}

// parseDefine splits a -D name=value pair.
func parseDefine(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, DefineSeparator)
	if !ok || name == "" {
		return "", "", fmt.Errorf(ErrMsgInvalidDefine, s)
	}
	return name, value, nil
}

func asLocals(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return nil, fmt.Errorf(ErrMsgVarsNotMap, kindName(v))
}

func kindName(v any) string {
	switch v.(type) {
	case nil:
		return KindNameNil
	case string:
		return KindNameString
	case []any:
		return KindNameArray
	case bool:
		return KindNameBoolean
	case int, int64, uint64:
		return KindNameInteger
	case float64:
		return KindNameFloat
	default:
		return fmt.Sprintf("%T", v)
	}
}

// readInput reads the template from stdin when no file is given
func readInput(stdin io.Reader) (string, error) {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOutput writes content to stdout or atomically replaces a file
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}
