package config

// GetDefaults returns the default configuration values keyed by dotted path.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		// prev_tag: empty means "ask the release log, then the repository".
		"prev_tag":      "",
		"repo_path":     ".",
		"config_header": "config.h",
		"news_file":     "NEWS",
		"template_file": "",
		// history.backend: go-git walks the object store in-process; git shells out.
		"history.backend": "go-git",

		"tracker.url":           "https://bugzilla.gnome.org",
		"tracker.statuses":      []string{"RESOLVED", "CLOSED", "VERIFIED"},
		"tracker.resolution":    "FIXED",
		"tracker.website_label": "GNOME SVN",

		"download.base_url": "http://download.gnome.org/sources",

		"upload.server":   "master.gnome.org",
		"upload.username": "",

		"mail.to":      "gnome-announce-list@gnome.org",
		"mail.from":    "",
		"mail.command": []string{"sendmail", "-t"},

		"state_dir": "~/.relnote/state",
		// max_history_entries: size of the release log before pruning.
		"max_history_entries": 100,
	}
}

// GetDefaultConfigTemplate returns a commented config file listing every key.
func GetDefaultConfigTemplate() string {
	return `# relnote configuration
# Every key can be overridden with RELNOTE_<KEY>, e.g. RELNOTE_TRACKER_URL.

prev_tag: ""                          # Boundary tag (empty = last release, then newest tag)
repo_path: .                          # Repository to read history from
config_header: config.h               # Header defining PACKAGE_NAME/PACKAGE_VERSION
news_file: NEWS                       # NEWS file updated by --write-news
template_file: ""                     # Custom announcement template (text/template)

history:
  backend: go-git                     # go-git | git

tracker:
  url: https://bugzilla.gnome.org
  statuses: [RESOLVED, CLOSED, VERIFIED]
  resolution: FIXED
  website_label: GNOME SVN            # Link text naming the project website

download:
  base_url: http://download.gnome.org/sources

upload:
  server: master.gnome.org
  username: ""                        # Empty = current user

mail:
  to: gnome-announce-list@gnome.org
  from: ""
  command: [sendmail, -t]

state_dir: ~/.relnote/state           # Release log location
max_history_entries: 100
`
}
