package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/cloud"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/config"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/logger"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/media"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/persistence"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/pipeline"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/storage"
	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/watch"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	appLog := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.System.AWSRegion))
	if err != nil {
		appLog.WithError(err).Fatal("failed to load aws configuration")
	}

	store := storage.NewS3Store(s3.NewFromConfig(awsCfg))
	invoker := cloud.NewSageMakerInvoker(sagemakerruntime.NewFromConfig(awsCfg))

	deps := pipeline.Deps{
		Store:       store,
		Transcriber: cloud.NewTranscribeClient(transcribe.NewFromConfig(awsCfg)),
		Translator:  cloud.NewTranslateClient(translate.NewFromConfig(awsCfg)),
		TTS:         invoker,
		Retalking:   invoker,
		Converter:   media.NewFfmpeg(),
	}
	stages := pipeline.NewStages(deps, cfg.Pipeline.TranslatePartialPolicy, appLog)

	runStore, err := persistence.NewSQLiteStore(cfg.System.RunDBPath)
	if err != nil {
		appLog.WithError(err).Fatal("failed to open run store")
	}
	defer runStore.Close()

	newRun := func(onState func(pipeline.RunState)) watch.Runner {
		return pipeline.NewOrchestrator(stages, cfg.Pipeline, appLog,
			pipeline.WithStateListener(onState))
	}

	c := cron.New()
	watcher := watch.New(store, runStore, newRun, cfg.Watch, c, appLog)
	if err := watcher.Schedule(ctx); err != nil {
		appLog.WithError(err).Fatal("failed to schedule descriptor sweep")
	}

	appLog.WithField("cron", cfg.Watch.CronExpr).Info("watching for job descriptors")
	c.Start()

	<-ctx.Done()
	appLog.Info("shutting down")
	<-c.Stop().Done()
}
