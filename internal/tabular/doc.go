// Package tabular turns delimited text tables into typed records.
//
// Input is one table per blob: rows separated by '\n', fields separated by
// ',', first row is the header. Every data field is coerced independently
// into a [Value]: a number when the trimmed text is a complete numeric
// literal, a boolean when it is "true" or "false" in any case, and text
// otherwise.
//
// Parsing never fails. Short rows are padded with empty text, extra fields
// are dropped, blank lines are skipped, and malformed quoting degrades to
// whatever the single-line scan produces:
//
//	records := tabular.ParseTable("doorNo,plateNo\n101,\"AB, 12\"\n")
//	// records[0]["doorNo"]  -> Number(101)
//	// records[0]["plateNo"] -> Text("AB, 12")
//
// The package holds no state between calls, so the same text always yields
// the same records.
package tabular
