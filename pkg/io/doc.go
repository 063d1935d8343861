// Package io reads and writes chartpad datasets.
//
// # Formats
//
// JSON is the native format and round-trips everything, including column
// colors and visibility and row hidden flags:
//
//	{
//	  "key": {"id": "year", "label": "Year"},
//	  "columns": [
//	    {"id": "revenue", "label": "Revenue", "color": "#4e79a7", "visible": true},
//	    {"id": "cogs", "label": "COGS", "visible": true}
//	  ],
//	  "rows": [
//	    {"key": 2019, "fields": {"revenue": 100, "cogs": 40}},
//	    {"key": 2020, "fields": {"revenue": 120, "cogs": 50}, "hidden": true}
//	  ]
//	}
//
// CSV and XLSX are tabular: the first row is the header, the first column
// holds the row keys, every other column becomes a visible data column.
// Column ids are derived from the header labels ("Net Income" becomes
// "net_income"). Cells are coerced with [dataset.ParseCell], keys with
// [dataset.ParseLabel].
//
// # Validation
//
// Readers reject datasets that would violate the editing invariants
// (empty or duplicate row keys, duplicate column ids, invalid ids) with an
// INVALID_DATASET error naming the offending row or column, instead of
// silently dropping data.
//
// [dataset.ParseCell]: github.com/matzehuels/chartpad/pkg/core/dataset.ParseCell
// [dataset.ParseLabel]: github.com/matzehuels/chartpad/pkg/core/dataset.ParseLabel
package io
