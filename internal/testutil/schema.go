package testutil

import _ "embed"

// AccountingSchema creates the usage_records table read by the sqlite
// extractor.
//
//go:embed accounting.sql
var AccountingSchema string
