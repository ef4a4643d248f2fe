package app

import (
	"fmt"

	"bitbucket.org/kleinnic74/tourist/consts"
)

// defaultInstanceProperties are announced with the instance via mDNS
func defaultInstanceProperties(o Options) map[string]string {
	return map[string]string{
		"gc": consts.GitCommit,
		"gr": consts.GitRepo,
		"as": fmt.Sprintf("%d", o.Album.Size),
	}
}
