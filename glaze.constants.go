package glaze

// Error codes for cuserr categorization
const (
	ErrCodeConfig     = "GLAZE_CONFIG"
	ErrCodeLoad       = "GLAZE_LOAD"
	ErrCodeName       = "GLAZE_NAME"
	ErrCodeParse      = "GLAZE_PARSE"
	ErrCodeEvaluation = "GLAZE_EVAL"
	ErrCodeEncoding   = "GLAZE_ENCODING"
	ErrCodeStore      = "GLAZE_STORE"
)

// ErrorCategory classifies library errors so callers can tell recoverable from fatal failures.
type ErrorCategory string

// Error categories stamped onto every library error.
const (
	CategoryNone       ErrorCategory = ""
	CategoryConfig     ErrorCategory = "config"
	CategoryLoad       ErrorCategory = "load"
	CategoryName       ErrorCategory = "name"
	CategoryParse      ErrorCategory = "parse"
	CategoryEvaluation ErrorCategory = "evaluation"
	CategoryEncoding   ErrorCategory = "encoding"
	CategoryStore      ErrorCategory = "store"
)

// Error message constants - every user-visible message is a constant
const (
	// Configuration errors
	ErrMsgNilEngine          = "engine type cannot be nil"
	ErrMsgEmptyExtension     = "extension cannot be empty"
	ErrMsgNoExtensions       = "at least one extension is required"
	ErrMsgEmptyIdentifier    = "engine identifier cannot be empty"
	ErrMsgEmptyLoadTarget    = "load target cannot be empty"
	ErrMsgRegistryFinalized  = "registry is finalized"
	ErrMsgEngineNotFound     = "no template engine registered for"
	ErrMsgMissingSource      = "file or source function required"
	ErrMsgKindMismatch       = "engine processor does not implement its declared kind"
	ErrMsgStaticCompile      = "static engines do not produce compiled artifacts"
	ErrMsgInvalidPipeline    = "pipeline extension needs at least two stages"
	ErrMsgPipelineStage      = "pipeline stage has no engine"
	ErrMsgNilProcessor       = "engine factory returned nil processor"
	ErrMsgReadTemplateFailed = "failed to read template file"

	// Load and name errors
	ErrMsgLoadFailed        = "engine failed to load"
	ErrMsgTargetNotLinked   = "load target is not linked into this binary"
	ErrMsgEngineUndefined   = "engine loaded but identifier is not defined"
	ErrMsgInvalidIdentifier = "invalid engine identifier"
	ErrMsgDuplicateDefine   = "identifier already defined by another engine"

	// Parse and evaluation errors
	ErrMsgPrepareFailed    = "template preparation failed"
	ErrMsgPreparePanic     = "engine panicked while preparing"
	ErrMsgEvaluationFailed = "template evaluation failed"
	ErrMsgInvalidLocalsKey = "invalid locals key"
	ErrMsgLocalsKeyHint    = "keys must be variable names"

	// Encoding errors
	ErrMsgUnknownEncoding = "unknown encoding"
	ErrMsgInvalidBytes    = "invalid byte sequence for encoding"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyCategory   = "category"
	MetaKeyExtension  = "extension"
	MetaKeyIdentifier = "identifier"
	MetaKeyTarget     = "target"
	MetaKeyPath       = "path"
	MetaKeyFile       = "file"
	MetaKeyLine       = "line"
	MetaKeyColumn     = "column"
	MetaKeyEngine     = "engine"
	MetaKeyEncoding   = "encoding"
	MetaKeyKey        = "key"
	MetaKeyOperation  = "operation"
	MetaKeyDriver     = "driver"
)

// Registry operation names used in finalized-mutation errors
const (
	OpRegister         = "register"
	OpRegisterLazy     = "register_lazy"
	OpRegisterPipeline = "register_pipeline"
	OpUnregister       = "unregister"
)

// Log messages
const (
	LogMsgRegistryCreated   = "registry created"
	LogMsgEngineRegistered  = "engine registered"
	LogMsgLazyRegistered    = "lazy engine registered"
	LogMsgUnregistered      = "extension unregistered"
	LogMsgLazyAlreadyLoaded = "lazy engine already defined, skipping load"
	LogMsgLazyLoading       = "loading lazy engine"
	LogMsgLazyLoadFailed    = "lazy engine failed to load, trying next candidate"
	LogMsgLazyResolved      = "lazy engine resolved"
	LogMsgFinalizeSkipped   = "finalize skipped unloadable engine"
	LogMsgFinalized         = "registry finalized"
	LogMsgDuplicated        = "registry duplicated"
	LogMsgTemplatePrepared  = "template prepared"
	LogMsgPrepareFailed     = "template preparation failed"
	LogMsgArtifactCompiled  = "compiled artifact built"
	LogMsgArtifactRaced     = "compiled artifact already stored by concurrent render"
	LogMsgCompiledPathSkip  = "compiled path ignored for anonymous scope type"
	LogMsgCompiledPathWrite = "compiled artifact listing written"
	LogMsgCompiledPathError = "compiled artifact listing could not be written"
	LogMsgPipelineStage     = "pipeline stage rendered"
)

// Log field names
const (
	LogFieldExtension  = "extension"
	LogFieldEngine     = "engine"
	LogFieldIdentifier = "identifier"
	LogFieldTarget     = "target"
	LogFieldFile       = "file"
	LogFieldScope      = "scope"
	LogFieldLocals     = "locals"
	LogFieldEntries    = "entries"
	LogFieldPath       = "path"
	LogFieldError      = "error"
	LogFieldCount      = "count"
	LogFieldStage      = "stage"
)

// Template option keys understood by the core
const (
	OptionDefaultEncoding = "default_encoding"
)

// Template defaults
const (
	DefaultTemplateLine   = 1
	DefaultEvalFile       = "(__TEMPLATE__)"
	DefaultEncodingName   = "utf-8"
	CompiledPathExtension = ".txt"
	CompiledPathFilePerm  = 0o644
)

// Encoding names handled without the html index
const (
	EncodingUTF8     = "utf-8"
	EncodingUTF8Bare = "utf8"
	EncodingASCII    = "us-ascii"
	EncodingASCIIAlt = "ascii"
)

// Pattern and formatting constants
const (
	ExtensionSeparator  = "."
	PathSeparator       = "/"
	LocalsKeySeparator  = "\x00"
	PipelineNamePrefix  = "Pipeline"
	FmtPipelineName     = "%s(%s)"
	FmtCompiledPathNext = "%s-%d%s"
	FmtLocalsKeyMessage = "%s: %q (%s)"
	FmtListingHeader    = "scope: %s\nlocals: %s\n\n"
	NilScopeName        = "<nil>"
)
