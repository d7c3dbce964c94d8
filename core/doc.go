// Package core defines the shared contract types of the tool invocation
// layer: the inbound ToolCall, the closed command union it decodes into, the
// uniform Result envelope every handler returns, and the role-based content
// parts exchanged with model providers.
package core
