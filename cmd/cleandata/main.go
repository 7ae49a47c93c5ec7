// Command cleandata cleans the hospitalization1 sheet and writes it to CSV.
package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/app"
	"github.com/liav-dl/rehosp-prep/pkg/config"
	"github.com/liav-dl/rehosp-prep/pkg/pipeline"
)

func main() {
	os.Exit(app.Main(app.Command{
		Name:         "cleandata",
		DefaultSheet: "hospitalization1",
		Publish:      true,
		Job: func(cfg *config.Config, _ *zap.Logger, job pipeline.Job) pipeline.Job {
			return job.WithExport(cfg.CleanedCSVPath)
		},
	}))
}
