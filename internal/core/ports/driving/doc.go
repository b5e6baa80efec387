// Package driving defines the interfaces through which the outside
// world calls INTO core (primary ports). CLI and MCP adapters depend on
// these interfaces; core services implement them.
package driving
