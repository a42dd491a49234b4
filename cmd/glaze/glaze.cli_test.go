package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itsatony/go-glaze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
var testFiles = map[string]string{
	"mytemplate.str":       "Answer: #{1 + 1}",
	"mylayout.str":         "Before\n#{yield()}\nAfter",
	"mylocalstemplate.str": "Answer: 2#{n}",
	"locals.yaml":          "n: 4\n",
	"locals.toml":          "n = \"5\"\n",
	"locals.json":          `{"n": 6}`,
	"notes.txt":            "just some text",
	"broken.str":           "ok\n#{1 +}",
}

// setupTestData writes the fixtures into a temp directory
func setupTestData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range testFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// runCLI runs the CLI and returns its exit code and output streams
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
	assert.Contains(t, stdout, CmdNameRender)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "unknown")
	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stdout, ErrMsgUnknownCommand)
}

func TestRun_HelpForCommands(t *testing.T) {
	for cmd, want := range map[string]string{
		CmdNameRender:  HelpRenderUsage,
		CmdNameList:    HelpListUsage,
		CmdNameVersion: HelpVersionUsage,
		CmdNameHelp:    HelpHelpUsage,
	} {
		code, stdout, _ := runCLI(t, "", CmdNameHelp, cmd)
		assert.Equal(t, ExitCodeSuccess, code, cmd)
		assert.Equal(t, want+"\n", stdout, cmd)
	}
}

// ==================== render tests ====================

func TestRender_File(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender, filepath.Join(dir, "mytemplate.str"))
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "Answer: 2\n", stdout)
}

func TestRender_Usage(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", CmdNameRender, "-h")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "glaze render [options] [file]")
}

func TestRender_TypeFromFlag(t *testing.T) {
	code, stdout, stderr := runCLI(t, "Answer: #{3}", CmdNameRender, "-t", "str")
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "Answer: 3\n", stdout)
}

func TestRender_Layout(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender,
		"-y", filepath.Join(dir, "mylayout.str"),
		filepath.Join(dir, "mytemplate.str"))
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "Before\nAnswer: 2\nAfter\n", stdout)
}

func TestRender_Locals(t *testing.T) {
	dir := setupTestData(t)
	tmpl := filepath.Join(dir, "mylocalstemplate.str")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "define", args: []string{"-D", "n=3"}, want: "Answer: 23\n"},
		{name: "long define", args: []string{"--define", "n=3"}, want: "Answer: 23\n"},
		{name: "yaml file", args: []string{"-d", filepath.Join(dir, "locals.yaml")}, want: "Answer: 24\n"},
		{name: "toml file", args: []string{"-d", filepath.Join(dir, "locals.toml")}, want: "Answer: 25\n"},
		{name: "json file", args: []string{"-d", filepath.Join(dir, "locals.json")}, want: "Answer: 26\n"},
		{name: "vars", args: []string{`--vars={"n":"4"}`}, want: "Answer: 24\n"},
		{name: "later option wins", args: []string{"-d", filepath.Join(dir, "locals.yaml"), "-D", "n=9"}, want: "Answer: 29\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{CmdNameRender}, tt.args...)
			code, stdout, stderr := runCLI(t, "", append(args, tmpl)...)
			assert.Equal(t, ExitCodeSuccess, code)
			assert.Empty(t, stderr)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestRender_OutputFile(t *testing.T) {
	dir := setupTestData(t)
	out := filepath.Join(dir, "out.txt")

	code, stdout, stderr := runCLI(t, "", CmdNameRender, "-o", out, filepath.Join(dir, "mytemplate.str"))
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Answer: 2\n", string(data))
}

func TestRender_Failures(t *testing.T) {
	dir := setupTestData(t)

	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string
	}{
		{
			name:   "no template given",
			code:   ExitCodeNoType,
			stderr: "template type not given. see: glaze help render\n",
		},
		{
			name:   "invalid implicit engine",
			args:   []string{"foo.bogus"},
			code:   ExitCodeNoEngine,
			stderr: "template engine not found for: foo.bogus\n",
		},
		{
			name:   "invalid explicit engine",
			args:   []string{"-t", "bogus"},
			code:   ExitCodeUnknownType,
			stderr: "unknown template type: bogus\n",
		},
		{
			name:   "missing layout",
			args:   []string{"-y", "bogus"},
			code:   ExitCodeMissingLayout,
			stderr: "no such layout: bogus\n",
		},
		{
			name:   "missing define file",
			args:   []string{"-d", "bogus"},
			code:   ExitCodeInvalidLocals,
			stderr: "no such define file: bogus\n",
		},
		{
			name:   "define file is not a mapping",
			args:   []string{"-d", filepath.Join(dir, "notes.txt")},
			code:   ExitCodeInvalidLocals,
			stderr: "vars must be a Hash, not instance of String\n",
		},
		{
			name:   "vars is not an object",
			args:   []string{`--vars=""`},
			code:   ExitCodeInvalidLocals,
			stderr: "vars must be a Hash, not instance of String\n",
		},
		{
			name:   "define without value separator",
			args:   []string{"-D", "novalue"},
			code:   ExitCodeUsageError,
			stderr: fmt.Sprintf(ErrMsgInvalidDefine, "novalue") + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", append([]string{CmdNameRender}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.stderr, stderr)
			assert.Empty(t, stdout)
		})
	}
}

func TestRender_TemplateError(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender, filepath.Join(dir, "broken.str"))
	assert.Equal(t, ExitCodeError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, ErrMsgRenderFailed)
}

func TestRender_Debug(t *testing.T) {
	dir := setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender, "--debug", filepath.Join(dir, "mytemplate.str"))
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "Answer: 2\n", stdout)
	assert.Contains(t, stderr, "template prepared")
}

func TestRender_RegistryFailure(t *testing.T) {
	original := registerBuiltins
	t.Cleanup(func() { registerBuiltins = original })
	registerBuiltins = func(*glaze.Registry) error { return errors.New("table broken") }

	code, stdout, stderr := runCLI(t, "", CmdNameRender, "-t", "str")
	assert.Equal(t, ExitCodeError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, ErrMsgRenderSetupFailed)
	assert.Contains(t, stderr, "table broken")
	assert.NotContains(t, stderr, ErrMsgListFailed)

	code, _, stderr = runCLI(t, "", CmdNameList)
	assert.Equal(t, ExitCodeError, code)
	assert.Contains(t, stderr, ErrMsgListFailed)
}

// ==================== list tests ====================

func TestList(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", CmdNameList)
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, fmt.Sprintf(ListLineFormat, "String", "str"))
	assert.Contains(t, stdout, fmt.Sprintf(ListLineFormat, "Django", "django, j2, jinja, pongo2"))
	assert.Contains(t, stdout, "\nString               str\n")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Goldmark", displayName("GoldmarkTemplate"))
	assert.Equal(t, "Custom", displayName("Custom"))
	assert.Equal(t, "Template", displayName("Template"))
}

// ==================== version tests ====================

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", CmdNameVersion)
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, "go-glaze version")

	code, stdout, _ = runCLI(t, "", CmdNameVersion, "-F", OutputFormatJSON)
	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, `"go_version"`)

	code, _, stderr := runCLI(t, "", CmdNameVersion, "-F", "xml")
	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgInvalidFormat)
}

func TestGetVersionInfo_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.yaml")
	content := "project:\n  version: 1.2.3\ngit:\n  commit: abc\n  branch: main\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	info := getVersionInfo([]string{"/does/not/exist.yaml", path})
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc", info.Commit)
	assert.Equal(t, "main", info.Branch)
	assert.Equal(t, VersionUnknown, info.BuildTime)
}
