// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"fmt"
	"os"

	"paywaila.org/waila/client/app"
)

func configure() (*app.Config, error) {
	// Pre-parse the command line options to see if an alternative config file
	// or the version flag was specified.
	iniCfg := app.DefaultConfig
	preCfg := iniCfg
	if err := app.ParseCLIConfig(&preCfg); err != nil {
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVer {
		fmt.Println(app.VersionString(appName))
		os.Exit(0)
	}

	appData, configPath := app.ResolveCLIConfigPaths(&preCfg)

	// Load additional config from file.
	if err := app.ParseFileConfig(configPath, &iniCfg); err != nil {
		return nil, err
	}

	cfg := &iniCfg
	return cfg, app.ResolveConfig(appData, cfg)
}
