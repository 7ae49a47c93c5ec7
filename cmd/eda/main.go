// Command eda plots data quality before and after cleaning and writes the EDA artifacts.
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
		Name:         "eda",
		DefaultSheet: "erBeforeHospitalization2",
		Reports:      true,
		Job: func(_ *config.Config, _ *zap.Logger, job pipeline.Job) pipeline.Job {
			return job.WithQualityReport().WithEDA()
		},
	}))
}
