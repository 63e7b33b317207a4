package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default glmcp data directory name (relative to home).
	DefaultDataDir = ".glmcp"
	// DBFile is the SQLite task store filename.
	DBFile = "glmcp.db"

	// GitLabURLEnv and GitLabTokenEnv are the environment variables with the GitLab connection.
	GitLabURLEnv   = "GITLAB_URL"
	GitLabTokenEnv = "GITLAB_TOKEN"
	// DefaultGitLabURL is the GitLab instance used when none is set.
	DefaultGitLabURL = "https://gitlab.com"
)

// DataDir returns the glmcp data directory inside a home directory.
func DataDir(home string) string {
	return filepath.Join(home, DefaultDataDir)
}

// DBPath returns the SQLite task store path inside a home directory.
func DBPath(home string) string {
	return filepath.Join(DataDir(home), DBFile)
}
