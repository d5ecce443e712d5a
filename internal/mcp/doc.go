// Package mcp serves the gateway's tools over the Model Context Protocol
// using the mcp-go library (github.com/mark3labs/mcp-go).
//
// # Tools
//
// One MCP tool is registered per gateway tool: read_file, write_file,
// list_directory, create_directory, delete_file and file_info. Every
// parameter is a required string. Tool annotations carry the read-only,
// destructive and idempotent hints from the tool table.
//
// # Results
//
// A successful call returns the rendered text as content and the typed
// outcome as structured content. A failed call is a tool result with
// isError set and a single text block of the form
//
//	AccessDenied: access denied - path outside allowed directories: /etc/passwd
//
// so clients can branch on the kind prefix. Protocol level failures, such as
// calling a tool name that is not registered, are JSON-RPC errors produced
// by mcp-go itself.
//
// # Transport
//
// Serve speaks newline-delimited JSON-RPC 2.0 over the given reader and
// writer, normally stdin and stdout:
//
//	fsgate serve --transport stdio --allow /projects
//
// Diagnostics never go to stdout; mcp-go's error log is bridged to the
// application logger.
//
// # References
//
//   - Model Context Protocol: https://modelcontextprotocol.io
//   - mcp-go: https://github.com/mark3labs/mcp-go
package mcp
