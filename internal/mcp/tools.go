package mcp

import "github.com/mark3labs/mcp-go/mcp"

var askQuestionTool = mcp.NewTool("ask_question",
	mcp.WithDescription("Answer a question about language, literature or culture across cultures. Returns a grounded Markdown article."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer"),
	),
	mcp.WithString("conversation",
		mcp.Description("Earlier conversation turns, as plain text"),
	),
	mcp.WithBoolean("enable_auditor",
		mcp.Description("Run the rubric audit over the draft"),
	),
	mcp.WithBoolean("include_references",
		mcp.Description("Append the sources the answer was grounded on"),
	),
)

var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Rank knowledge-base documents for a question without generating an answer."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithNumber("max_results",
		mcp.Description("Maximum number of documents to return (default 5)"),
	),
)

var getDocumentTool = mcp.NewTool("get_document",
	mcp.WithDescription("Get the full text and metadata of one knowledge-base document."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Document ID"),
	),
)

var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List knowledge-base documents, optionally restricted to one discipline."),
	mcp.WithString("discipline",
		mcp.Description("Discipline filter"),
		mcp.Enum("linguistics", "literature", "cultural_studies"),
	),
)
