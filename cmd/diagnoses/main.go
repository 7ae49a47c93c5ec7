// Command diagnoses analyzes the effect of ICD9 diagnoses on rehospitalization.
package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/liav-dl/rehosp-prep/pkg/app"
	"github.com/liav-dl/rehosp-prep/pkg/config"
	"github.com/liav-dl/rehosp-prep/pkg/pipeline"
	"github.com/liav-dl/rehosp-prep/pkg/regression"
)

func main() {
	os.Exit(app.Main(app.Command{
		Name:         "diagnoses",
		DefaultSheet: "ICD9",
		Job: func(_ *config.Config, _ *zap.Logger, job pipeline.Job) pipeline.Job {
			return job.WithModel("diagnosis", regression.DiagnosisAnalysis)
		},
	}))
}
