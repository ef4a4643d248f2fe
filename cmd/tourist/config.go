package main

import (
	"errors"
	"strings"

	"bitbucket.org/kleinnic74/tourist/album"
	"bitbucket.org/kleinnic74/tourist/app"
	"bitbucket.org/kleinnic74/tourist/imagecache"
	"bitbucket.org/kleinnic74/tourist/search/flickr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "tourist"
	envPrefix  = "TOURIST"
)

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("tourist", pflag.ContinueOnError)
	flags.String("config", "", "Path of the configuration file")
	flags.String("libdir", "tourist", "Directory holding the database and the image cache")
	flags.Uint("port", 8080, "HTTP port")
	flags.Bool("devmode", false, "Enable console logging and debug endpoints")

	flags.String("flickr.apikey", "", "Flickr API key")
	flags.String("flickr.baseurl", flickr.DefaultBaseURL, "Flickr REST endpoint")
	flags.Int("flickr.pagesize", flickr.DefaultPageSize, "Number of search results requested per query")

	flags.Int("album.size", album.DefaultAlbumSize, "Number of photos per album")
	flags.Bool("album.clearfirst", false, "Remove the current album before searching")
	flags.Int("album.prefetch", 4, "Parallel image downloads after a synchronization, 0 disables prefetching")

	flags.Duration("timeouts.search", album.DefaultSearchTimeout, "Deadline of photo searches")
	flags.Duration("timeouts.fetch", flickr.DefaultTimeout, "Deadline of image downloads")

	flags.Int("cache.memoryentries", imagecache.DefaultMemoryEntries, "Images kept in memory")
	flags.Int("http.maxconnections", 0, "Maximum concurrent HTTP connections, 0 means unlimited")

	flags.String("logging.file", "", "JSON log file")
	flags.String("logging.loggly", "", "Loggly token")
	flags.Bool("logging.console", false, "Log to the console outside of devmode")
	return flags
}

// loadOptions merges flags, TOURIST_* environment variables and the optional
// configuration file, in that order of precedence
func loadOptions(args []string) (o app.Options, err error) {
	flags := newFlagSet()
	if err = flags.Parse(args); err != nil {
		return
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err = v.BindPFlags(flags); err != nil {
		return
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(v.GetString("libdir"))
	}
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&o)
	return
}
