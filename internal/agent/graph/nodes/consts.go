package nodes

// Graph node keys.
const (
	NodeInputConverter     = "input_converter"
	NodeSupervisor         = "supervisor"
	NodeRetrieverAssembler = "retriever_assembler"
	NodeRetrieverModel     = "retriever_model"
	NodeToolExecutor       = "tool_executor"
	NodeChatAssembler      = "chat_assembler"
	NodeChatModel          = "chat_model"
	NodeEnricher           = "enricher"
	NodeTerminator         = "terminator"
)
