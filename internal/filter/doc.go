// Package filter parses the query-string filters understood by the list
// endpoints (date ranges and tag sets) into typed values.
//
// Parsing is strict: a malformed date or a non-numeric tag id is an error,
// never a silently dropped constraint. Translating the parsed values into
// SQL is the store package's job.
package filter
