// Command distribution fits the length-of-stay regression on the hospitalization2 sheet.
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/app"
	"github.com/liav-dl/rehosp-prep/pkg/config"
	"github.com/liav-dl/rehosp-prep/pkg/model"
	"github.com/liav-dl/rehosp-prep/pkg/pipeline"
	"github.com/liav-dl/rehosp-prep/pkg/regression"
)

func main() {
	os.Exit(app.Main(app.Command{
		Name:         "distribution",
		DefaultSheet: "hospitalization2",
		Job: func(_ *config.Config, logger *zap.Logger, job pipeline.Job) pipeline.Job {
			return job.WithModel("optimal_distribution", func(ctx context.Context, t *model.Table) error {
				return regression.OptimalDistribution(ctx, t, logger)
			})
		},
	}))
}
