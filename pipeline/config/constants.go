package config

// Sink types
const (
	SinkDuckDB  = "duckdb"
	SinkParquet = "parquet"
)

// Worker isolation modes
const (
	IsolationProcess   = "process"
	IsolationGoroutine = "goroutine"
)

const (
	DEFAULT_CONFIG_FILE = "oraport.yml"
	DEFAULT_ORACLE_PORT = 1521
	DEFAULT_MAX_WORKERS = 4
	DEFAULT_EPSILON     = 1e-6
)
