package diag

// Diagnostic codes emitted by the pipeline stages. Centralizing these
// prevents silent breakage from typos in string literals; the set is closed
// for the compiler core.

// Parser codes.
const (
	CodeParseError         = "utam::parse_error"
	CodeInvalidElementType = "utam::invalid_element_type"
	CodeUnknownField       = "utam::unknown_field"
)

// Schema codes. Schema violations use the "utam::schema_" prefix followed
// by the failed schema keyword, e.g. "utam::schema_required".
const SchemaCodePrefix = "utam::schema_"

// Semantic validator codes.
const (
	CodeDuplicateElement       = "utam::duplicate_element"
	CodeReservedIdentifier     = "utam::reserved_identifier"
	CodeIdentifierCollision    = "utam::identifier_collision"
	CodeSelectorShape          = "utam::selector_shape"
	CodeSelectorParams         = "utam::selector_params"
	CodeSelectorType           = "utam::selector_type"
	CodeFrameReturnAll         = "utam::frame_return_all"
	CodeContainerHasCapability = "utam::container_has_capability"
	CodeCustomComponentPath    = "utam::custom_component_path"
	CodeUnknownElement         = "utam::unknown_element"
	CodeUnknownAction          = "utam::unknown_action"
	CodeComposeShape           = "utam::compose_shape"
	CodeChainRequiresPrevious  = "utam::chain_requires_previous"
	CodeArgTypeMismatch        = "utam::arg_type_mismatch"
	CodeMatcherTypeMismatch    = "utam::matcher_type_mismatch"
)

// Generator codes.
const CodeInternal = "utam::internal"
