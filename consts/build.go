package consts

// Set at link time
var (
	GitCommit = "unknown"
	GitRepo   = "bitbucket.org/kleinnic74/tourist"
)
