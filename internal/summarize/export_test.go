package summarize

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// WithChatCompleter injects a chat completion mock.
var WithChatCompleter = withChatCompleter

// ChatCompleter exports chatCompleter for mock implementations.
type ChatCompleter = chatCompleter

// MinutesToolName exports the forced function name.
const MinutesToolName = minutesToolName

// Function exports for unit testing internal logic.
var (
	ParseSummary  = parseSummary
	MinutesSchema = minutesSchema
	MergeDocument = mergeDocument
)
