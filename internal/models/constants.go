package models

const (
	// TextEmbeddingDim is the vector size of the text embedding pipeline.
	// Must match both the embeddings table column and the model output.
	TextEmbeddingDim = 768

	// MultimodalEmbeddingDim is the vector size of the multimodal pipeline.
	MultimodalEmbeddingDim = 1024

	// ToolGetInformation is the retrieval tool exposed to the chat model.
	ToolGetInformation = "get_information"
)

var (
	SystemPrompt = `You are a helpful assistant. Check your knowledge base before answering any questions.
Only respond to questions using information from tool calls.
If no relevant information is found in the tool calls, respond, "Sorry, I don't know."`

	ToolGetInformationDescription = `get information from your knowledge base to answer questions.`
)
