// Package builder materializes compose content on disk.
//
// StructureBuilder writes skills, agents and commands under <target>/.claude
// together with a settings.json index of every applied skill. The merge
// functions combine MCP config fragments into one JSON object, and MCPWriter
// writes that object to <target>/.mcp.json, optionally merged onto the file
// already there.
//
// Builders only ever create or overwrite the files they own. Removing stale
// content is left to the caller.
package builder
