////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// package main is its own utility that is compiled separate from the WASM
// binaries. It walks a deployed web root and produces the asset manifest
// (assets.json) that gets embedded into the service worker binary.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/swcache"
)

// defaultAPIURLs is the set of API URLs pre-warmed at service worker install
// time so the country selector still populates offline.
var defaultAPIURLs = []string{
	"https://free.currencyconverterapi.com/api/v5/countries",
}

// Flag variables.
var (
	webRoot, outputPath, version, logFile string
	apiURLs                               []string
	logLevel                              int
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Walks the web root directory and writes the asset manifest consumed by the
// service worker. Every regular file under the root is listed as a shell
// asset; the API URLs are appended as pre-warm targets. Refer to the flags for
// details.
var cmd = &cobra.Command{
	Use: "genManifest",
	Short: "Walks the web root directory and writes the asset manifest " +
		"consumed by the service worker. Every regular file under the root " +
		"is listed as a shell asset; the API URLs are appended as pre-warm " +
		"targets. Refer to the flags for details.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {

		// Initialize the logging
		initLog(jww.Threshold(logLevel), logFile)

		jww.INFO.Printf("Walking web root %s", webRoot)
		assets, err := collectAssets(webRoot)
		if err != nil {
			jww.FATAL.Panicf("Failed to walk web root %s: %+v", webRoot, err)
		}

		jww.DEBUG.Printf("Collected %d assets", len(assets))

		manifest := swcache.Manifest{
			Version: version,
			Assets:  assets,
			API:     apiURLs,
		}

		manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			jww.FATAL.Panicf("Failed to marshal asset manifest: %+v", err)
		}

		// Round-trip through the parser so a manifest the worker would refuse
		// to load never ships.
		if _, err = swcache.ParseManifest(manifestJSON); err != nil {
			jww.FATAL.Panicf("Generated manifest is invalid: %+v", err)
		}

		err = os.WriteFile(outputPath, manifestJSON, 0644)
		if err != nil {
			jww.FATAL.Panicf("Failed to write asset manifest to filepath %s: "+
				"%+v", outputPath, err)
		}

		jww.INFO.Printf("Wrote asset manifest for cache bucket %s to %s",
			swcache.BucketName(swcache.AppNamespace, version), outputPath)
	},
}

// collectAssets lists every regular file under the web root as a
// root-relative URL, "/" first, sorted for stable output.
func collectAssets(root string) ([]string, error) {
	assets := []string{"/"}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		assets = append(assets, "/"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(assets[1:])
	return assets, nil
}

// init is the initialization function for Cobra which defines flags.
func init() {
	cmd.Flags().StringVarP(&webRoot, "root", "r", ".",
		"Web root directory to walk for shell assets.")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "assets.json",
		"Output JSON file path.")
	cmd.Flags().StringVarP(&version, "version", "V", "",
		"Cache generation version. Bump to force a full cache refresh.")
	cmd.Flags().StringSliceVarP(&apiURLs, "api", "a", defaultAPIURLs,
		"API URLs to pre-warm at install time.")
	cmd.Flags().StringVarP(&logFile, "log", "l", "-",
		"Log output path. By default, logs are printed to stdout. "+
			"To disable logging, set this to empty (\"\").")
	cmd.Flags().IntVarP(&logLevel, "logLevel", "v", 4,
		"Verbosity level of logging. 0 = TRACE, 1 = DEBUG, 2 = INFO, "+
			"3 = WARN, 4 = ERROR, 5 = CRITICAL, 6 = FATAL")

	if err := cmd.MarkFlagRequired("version"); err != nil {
		panic(err)
	}
}

// initLog will enable JWW logging to the given log path with the given
// threshold. If log path is empty, then logging is not enabled. Panics if the
// log file cannot be opened or if the threshold is invalid.
func initLog(threshold jww.Threshold, logPath string) {
	if logPath == "" {
		// Do not enable logging if no log file is set
		return
	} else if logPath != "-" {
		// Set the log file if stdout is not selected

		// Disable stdout output
		jww.SetStdoutOutput(io.Discard)

		// Use log file
		logOutput, err :=
			os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err)
		}
		jww.SetLogOutput(logOutput)
	}

	if threshold < jww.LevelTrace || threshold > jww.LevelFatal {
		panic("Invalid log threshold: " + strconv.Itoa(int(threshold)))
	}

	// Display microseconds if the threshold is set to TRACE or DEBUG
	if threshold == jww.LevelTrace || threshold == jww.LevelDebug {
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	// Enable logging
	jww.SetStdoutThreshold(threshold)
	jww.SetLogThreshold(threshold)
	jww.INFO.Printf("Log level set to: %s", threshold)
}
