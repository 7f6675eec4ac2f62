package main

import (
	"context"
	"os"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/cli"
)

// set with -ldflags "-X main.version=..."
var (
	version string
	commit  string
	date    string
)

// @title           GitHub Profile Analyzer API
// @version         1.0
// @description     Scores public GitHub profiles on activity, diversity, community, documentation and code quality.
// @license.name    MIT
// @BasePath        /
func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
