// Package config holds the server configuration data model (§3, §6.1)
// and a thin YAML loader over it. The loader is the only place in the
// module that depends on a specific file format; every other package
// consumes a fully populated Config.
package config

// Route is a configured URL-prefix binding within a Server.
type Route struct {
	Path          string   `yaml:"path"`
	Methods       []string `yaml:"methods"`
	Root          string   `yaml:"root"`
	DefaultFile   string   `yaml:"default_file"`
	Redirect      string   `yaml:"redirect"`
	CGI           string   `yaml:"cgi"`
	ListDirectory bool     `yaml:"list_directory"`

	// MaxBodySize overrides the server's ClientMaxBodySize for uploads
	// through this route. Zero means "inherit the server value".
	MaxBodySize int64 `yaml:"max_body_size"`
}

// AllowsMethod reports whether method is in r's allowed list.
func (r Route) AllowsMethod(method string) bool {
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Server is one virtual host.
type Server struct {
	Host               string         `yaml:"host"`
	Ports              []int          `yaml:"ports"`
	ServerName         string         `yaml:"server_name"`
	DefaultServer      bool           `yaml:"default_server"`
	Root               string         `yaml:"root"`
	ClientMaxBodySize  int64          `yaml:"client_max_body_size"`
	ErrorPages         map[int]string `yaml:"error_pages"`
	Routes             []Route        `yaml:"routes"`
}

// Config is the full, immutable-after-load configuration for the
// process: every Server it will bind, grouped by listener at startup.
type Config struct {
	Servers []Server `yaml:"servers"`

	// SessionSweepIntervalSeconds controls how often the session store's
	// background sweep removes expired sessions. Defaults applied by
	// Load if zero.
	SessionSweepIntervalSeconds int `yaml:"session_sweep_interval_seconds"`
}

// DefaultClientMaxBodySize is used for any server that omits
// client_max_body_size from its configuration.
const DefaultClientMaxBodySize = 10 << 20 // 10 MiB

// DefaultSessionSweepIntervalSeconds is used when the configuration
// omits session_sweep_interval_seconds.
const DefaultSessionSweepIntervalSeconds = 60

// applyDefaults fills in zero-valued fields with the server's defaults,
// mirroring the teacher's DefaultConfig()-then-override convention.
func (c *Config) applyDefaults() {
	if c.SessionSweepIntervalSeconds == 0 {
		c.SessionSweepIntervalSeconds = DefaultSessionSweepIntervalSeconds
	}
	for i := range c.Servers {
		if c.Servers[i].ClientMaxBodySize == 0 {
			c.Servers[i].ClientMaxBodySize = DefaultClientMaxBodySize
		}
	}
}
