package models

// Source identifiers recognized by the retrieval merger. The set is fixed,
// not user-extensible.
const (
	SourceCurated       = "Trip Recommendations"
	SourceUserDocuments = "User Uploaded Data"
)

const (
	// ContextSeparator joins retrieved document texts in the prompt.
	ContextSeparator = "\n"

	// MaxOwnerLen caps the owner identity stamped into chunk metadata.
	MaxOwnerLen = 256
)

// User-visible turn messages. Wording kept stable because downstream chat
// clients pattern their progress rendering on it.
const (
	GreetingMessage     = "Hi, how may I help you?"
	UploadStartMessage  = "Initiating upload and content vectorization. \nPlease wait...."
	UploadDoneMessage   = "\nFile(s)/URL(s) uploaded and ingested successfully. \nGiving time for Indexes to Update...."
	UploadFailedMessage = "\nFile(s)/URL(s) upload exited with error...."
	TurnErrorPrefix     = "There was an error.\n"
)

var (
	RAGPromptTemplate = `Use the following pieces of context to answer the question at the end.
Tell you are %s.
Context:
%s

Question: %s
Answer:`
)
