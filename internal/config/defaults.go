package config

// DefaultConfigYAML contains the default configuration YAML content.
// `caso-extract config init` writes it as a starting point.
const DefaultConfigYAML = `# caso-extract configuration
#
# Every key can also be set through a CASO_* environment variable
# (e.g. CASO_SPOOL_DIRECTORY, CASO_LOCK_PATH) or a command line flag.

# Messengers that receive the extracted records: noop, ssm, logstash, http
messengers:
  - noop

# Directory holding the last run marker
spool_directory: /var/spool/caso

# Directory for lock files; defaults to spool_directory.
# Only the user running caso-extract should be able to write here.
# lock_path: /var/lock/caso

# Site name stamped on records that lack one
site_name: ""

extractors:
  - sqlite

extractor:
  # Only extract records for these projects (empty = all)
  projects: []
  sqlite:
    path: /var/lib/caso/accounting.db

messenger:
  # Extra attempts per messenger before the run is aborted
  retries: 0
  initial_delay: 1s
  max_delay: 30s
  ssm:
    output_path: /var/spool/apel/outgoing
  logstash:
    host: localhost
    port: 5000
  http:
    url: ""
    timeout: 30s

run:
  # Upper bound for one run while it holds the lock (0 = none)
  timeout: "0"

log:
  level: info
  format: auto
`
