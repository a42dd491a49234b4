package main

// Command names
const (
	CmdNameRender  = "render"
	CmdNameList    = "list"
	CmdNameVersion = "version"
	CmdNameHelp    = "help"
)

// Flag names - long form
const (
	FlagType   = "type"
	FlagLayout = "layout"
	FlagDefine = "define"
	FlagData   = "data"
	FlagVars   = "vars"
	FlagOutput = "output"
	FlagDebug  = "debug"
	FlagFormat = "format"
)

// Flag names - short form
const (
	FlagTypeShort   = "t"
	FlagLayoutShort = "y"
	FlagDefineShort = "D"
	FlagDataShort   = "d"
	FlagOutputShort = "o"
	FlagFormatShort = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess       = 0
	ExitCodeError         = 1
	ExitCodeUsageError    = 2
	ExitCodeNoType        = 3
	ExitCodeUnknownType   = 4
	ExitCodeNoEngine      = 5
	ExitCodeMissingLayout = 6
	ExitCodeInvalidLocals = 7
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgTypeNotGiven      = "template type not given. see: %s help %s"
	ErrMsgEngineNotFound    = "template engine not found for: %s"
	ErrMsgUnknownType       = "unknown template type: %s"
	ErrMsgNoSuchLayout      = "no such layout: %s"
	ErrMsgNoSuchDefineFile  = "no such define file: %s"
	ErrMsgVarsNotMap        = "vars must be a Hash, not instance of %s"
	ErrMsgInvalidDefine     = "invalid define, expected name=value: %s"
	ErrMsgInvalidVars       = "invalid vars"
	ErrMsgReadStdinFailed   = "failed to read from stdin"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgRenderFailed      = "template rendering failed"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgListFailed        = "failed to load template engines"
	ErrMsgRenderSetupFailed = "failed to prepare template engines for rendering"
	ErrMsgInvalidOptions    = "invalid options"
)

// Help text templates
const (
	HelpMainUsage = `glaze - Render templates of any registered engine

Usage:
    glaze <command> [options]

Commands:
    render      Render a template file or stdin
    list        List the available template engines
    version     Show version information
    help        Show help for a command

Use "glaze help <command>" for more information about a command.`

	HelpRenderUsage = `Render a template file or stdin

Usage:
    glaze render [options] [file]

Options:
    -t, --type <type>       Template type, as an extension (required for stdin)
    -y, --layout <file>     Layout template wrapping the output
    -D, --define <k=v>      Define a local (repeatable)
    -d, --data <file>       Locals from a YAML, TOML or JSON file
    --vars <json>           Locals as a JSON object
    -o, --output <file>     Output file (default: stdout)
    --debug                 Log engine activity to stderr

Examples:
    glaze render page.str -D name=Joe
    glaze render -y layout.gohtml -d locals.yaml page.md
    echo 'Hi #{name}' | glaze render -t str --vars '{"name":"Moe"}'`

	HelpListUsage = `List the available template engines and their extensions

Usage:
    glaze list`

	HelpVersionUsage = `Show version information

Usage:
    glaze version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    glaze help [command]

Commands:
    render      Show help for render command
    list        Show help for list command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "go-glaze version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// List output
const (
	ListLineFormat    = "%-20s %s\n"
	ListExtSeparator  = ", "
	EngineIdentSuffix = "Template"
	DefineSeparator   = "="
)

// Locals file extensions
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
	ExtTOML = ".toml"
	ExtJSON = ".json"
)

// Type names used by the vars error message
const (
	KindNameString  = "String"
	KindNameArray   = "Array"
	KindNameInteger = "Integer"
	KindNameFloat   = "Float"
	KindNameBoolean = "Boolean"
	KindNameNil     = "NilClass"
)

// CLI metadata
const (
	CLIName        = "glaze"
	CLIDescription = "Render templates of any registered engine"
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
