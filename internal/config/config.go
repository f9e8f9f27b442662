package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Config holds every process-wide setting. It is built once at startup
// and passed by value; nothing mutates it afterwards.
type Config struct {
	// Backend
	HBaseAddr    string // host:port of the HBase Thrift endpoint
	TableName    string // table rows are written to
	ColumnFamily string // column family for every mutation

	// HTTP surface
	ListenRoute string // route the ingest endpoint is registered on
	ListenAddr  string // address:port the server binds

	// Pool
	PoolSize       int           // maximum live backend connections
	AcquireTimeout time.Duration // how long a request waits for a connection

	// Hardening beyond the bare write path
	WriteTimeout time.Duration // upper bound on one backend write call
	MaxBodySize  int64         // request body cap in bytes

	// Optional ingest rate guard. Zero disables it.
	RPS   float64
	Burst int
}

// Default returns the stock configuration. The backend, table, family,
// route and listen defaults match the deployed bridge this replaces.
func Default() Config {
	return Config{
		HBaseAddr:      "localhost:9090",
		TableName:      "logs",
		ColumnFamily:   "data",
		ListenRoute:    "/",
		ListenAddr:     "0.0.0.0:3000",
		PoolSize:       10,
		AcquireTimeout: 5 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxBodySize:    8 << 20,
		RPS:            0,
		Burst:          0,
	}
}

// Load parses args into a Config. Precedence per setting: explicit flag,
// then environment variable, then built-in default. Environment values
// are applied as flag defaults, so a set flag always wins.
func Load(args []string) (Config, error) {
	def := Default()

	var envErr error
	record := func(err error) {
		if envErr == nil && err != nil {
			envErr = err
		}
	}

	fs := flag.NewFlagSet("logbridge", flag.ContinueOnError)
	cfg := Config{}

	fs.StringVar(&cfg.HBaseAddr, "hbase-addr", envString("HBASE_ADDR", def.HBaseAddr), "address where hbase's thrift endpoint is exposed")
	fs.StringVar(&cfg.TableName, "table-name", envString("TABLE_NAME", def.TableName), "name of the hbase table logs are written to")
	fs.StringVar(&cfg.ColumnFamily, "column-family", envString("COLUMN_FAMILY", def.ColumnFamily), "name of the column family logs are written to")
	fs.StringVar(&cfg.ListenRoute, "listen-route", envString("LISTEN_ROUTE", def.ListenRoute), "path where the ingest endpoint is enabled")
	fs.StringVar(&cfg.ListenAddr, "listen-addr", envString("LISTEN_ADDR", def.ListenAddr), "socket address to serve on (address:port)")

	fs.IntVar(&cfg.PoolSize, "pool-size", envInt("POOL_SIZE", def.PoolSize, record), "maximum number of backend connections")
	fs.DurationVar(&cfg.AcquireTimeout, "acquire-timeout", envDuration("ACQUIRE_TIMEOUT", def.AcquireTimeout, record), "how long to wait for a pooled connection")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", envDuration("WRITE_TIMEOUT", def.WriteTimeout, record), "upper bound on a single backend write")
	fs.Int64Var(&cfg.MaxBodySize, "max-body-size", envInt64("MAX_BODY_SIZE", def.MaxBodySize, record), "maximum request body size in bytes")
	fs.Float64Var(&cfg.RPS, "rps", envFloat("INGEST_RPS", def.RPS, record), "ingest requests per second allowed, 0 disables the guard")
	fs.IntVar(&cfg.Burst, "burst", envInt("INGEST_BURST", def.Burst, record), "ingest burst allowance when -rps is set")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if envErr != nil {
		return Config{}, envErr
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot serve with.
func (c Config) Validate() error {
	if c.HBaseAddr == "" {
		return fmt.Errorf("hbase-addr must not be empty")
	}
	if _, _, err := net.SplitHostPort(c.HBaseAddr); err != nil {
		return fmt.Errorf("invalid hbase-addr %q: %w", c.HBaseAddr, err)
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen-addr %q: %w", c.ListenAddr, err)
	}
	if c.TableName == "" {
		return fmt.Errorf("table-name must not be empty")
	}
	if c.ColumnFamily == "" {
		return fmt.Errorf("column-family must not be empty")
	}
	if c.ListenRoute == "" || c.ListenRoute[0] != '/' {
		return fmt.Errorf("listen-route %q must start with /", c.ListenRoute)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool-size must be positive, got %d", c.PoolSize)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("acquire-timeout must be positive, got %v", c.AcquireTimeout)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write-timeout must be positive, got %v", c.WriteTimeout)
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("max-body-size must be positive, got %d", c.MaxBodySize)
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must not be negative, got %v", c.RPS)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, record func(error)) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		record(fmt.Errorf("invalid int env %s=%q: %w", key, v, err))
		return def
	}
	return n
}

func envInt64(key string, def int64, record func(error)) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		record(fmt.Errorf("invalid int env %s=%q: %w", key, v, err))
		return def
	}
	return n
}

func envFloat(key string, def float64, record func(error)) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		record(fmt.Errorf("invalid float env %s=%q: %w", key, v, err))
		return def
	}
	return f
}

func envDuration(key string, def time.Duration, record func(error)) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		record(fmt.Errorf("invalid duration env %s=%q: %w", key, v, err))
		return def
	}
	return d
}
