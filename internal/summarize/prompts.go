package summarize

// mapSystemPrompt instructs extraction from one chunk.
const mapSystemPrompt = `You are a professional assistant who writes meeting minutes.
You will receive a meeting transcript split into parts. Speakers are not separated.
Extract the important content from this part.
Do not infer anything: extract only what is stated explicitly in the text.
Write the extract as prose, not as a bullet list.`

// reduceInstruction asks for the four sections of the minutes.
// The merged extracts are appended after it.
const reduceInstruction = `You are an assistant who writes meeting minutes.
You will receive the important points extracted from a meeting transcript.
Return the meeting summary, a list of key points, a list of decisions, and a list of tasks.
Write the summary as prose that keeps the shape of the extracts and omits nothing.
The task list holds work that remains to be done.
Never list something that is already completed as a task.
The decision list holds what was decided, other than tasks.

Here is the set of extracts:
`

// Forced function for the reduce phase.
const (
	minutesToolName        = "record_minutes"
	minutesToolDescription = "Records the summary, key points, decisions, and outstanding tasks extracted from meeting transcript highlights."
)
