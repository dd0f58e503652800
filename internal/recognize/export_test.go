package recognize

// Exports for testing.

// AudioTranscriber is the client interface the OpenAI recognizer uses.
type AudioTranscriber = audioTranscriber

// NewTestOpenAI creates an OpenAI recognizer with a mock client.
func NewTestOpenAI(client audioTranscriber, language string, opts ...OpenAIOption) *OpenAI {
	return newOpenAI(client, language, opts...)
}

// Function exports for unit testing internal logic.
var (
	ClassifyError    = classifyError
	IsRetryableError = isRetryableError
	Millis           = millis
	ToRecognition    = toRecognition
)
