// Package pkg provides the libraries behind chartpad, a spreadsheet-to-chart
// editor.
//
// # Overview
//
// A user edits a small table (rename, hide, reorder and retype columns and
// rows) and maps its columns onto the slots of a chart. Every edit keeps the
// chart mapping valid, so the renderer never sees a slot that points at a
// hidden or missing column.
//
//  1. [core] - Domain logic (dataset, reordering, gestures, mapping, chart specs)
//  2. [session] - Editing sessions and their persistent stores
//  3. [source] - Dataset sources (files, PostgreSQL queries)
//  4. [pipeline] - Orchestration (load → session → spec) with caching
//  5. [server] - HTTP API over sessions
//
// # Architecture
//
//	CSV / XLSX / JSON / SQL
//	         ↓
//	    [source] + [io]     (load and decode, cached by content hash)
//	         ↓
//	    [core/dataset]      (columns, rows, typed cell values)
//	         ↓
//	    [session]           (operations, gestures, mapping reconcile)
//	         ↓
//	    [core/chart]        (validated renderer input)
//
// # Quick Start
//
//	src, _ := source.NewFile("finance.csv")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, _ := runner.Execute(ctx, src, pipeline.Options{ChartType: mapping.Bar})
//
//	res.Session.SetColumnVisible("cogs", false) // Y and series repair themselves
//	spec := res.Session.Spec()
//
// # Main Packages
//
// [core/dataset] - Typed values, the column registry and the row store.
//
// [core/reorder] - Stable above/below moves shared by columns and rows.
//
// [core/gesture] - The pointer state machine: sweep toggling, drag and drop,
// and inline rename. At most one of them is active at a time.
//
// [core/mapping] - Column-to-slot mappings per chart type and the reconciler
// that repairs them after visibility changes.
//
// [core/chart] - Projection of visible data into a [chart.Spec], histogram
// bins and categorical color scales.
//
// [io] - JSON, CSV and XLSX codecs.
//
// [cache] - Dataset cache with file, Redis and null backends.
//
// [config] - TOML configuration.
//
// [observability] - Hooks for metrics and tracing.
//
// [core]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/core
// [core/dataset]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/core/dataset
// [core/reorder]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/core/reorder
// [core/gesture]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/core/gesture
// [core/mapping]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/core/mapping
// [core/chart]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/core/chart
// [chart.Spec]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/core/chart#Spec
// [session]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/session
// [source]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/source
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/server
// [io]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/chartpad/pkg/observability
package pkg
