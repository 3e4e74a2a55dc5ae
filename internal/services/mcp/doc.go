// Package mcp exposes session-mutating tools to AI agents over the Model
// Context Protocol and routes the domain events they produce to the stream
// service for client delivery.
package mcp
