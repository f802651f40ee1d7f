package cmd

import (
	"context"
	"cropcast/api"
	"cropcast/internal/calculator"
	"cropcast/internal/domain"
	"cropcast/internal/inference"
	"cropcast/internal/repository"
	"cropcast/internal/service"
	"cropcast/internal/util"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Dependencies struct {
	ApiHandler    *api.ApiHandler
	BundleService service.BundleService
	Secrets       *util.Secrets
}

func InitializeDependencies(ctx context.Context) (*Dependencies, error) {
	secrets, err := util.LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	bundleSource, err := newBundleSource(ctx, secrets)
	if err != nil {
		return nil, err
	}

	graphFactory := func(modelData []byte) (domain.Graph, error) {
		if err := inference.InitRuntime(secrets.OnnxLibraryPath); err != nil {
			return nil, err
		}
		return inference.NewOnnxGraph(modelData)
	}

	bundleService := service.NewBundleService(bundleSource, graphFactory)
	normalizationService := calculator.NewNormalizationService()
	forecastService := service.NewForecastService(bundleService, normalizationService)
	simulationService := service.NewSimulationService(forecastService)
	marketDataService := service.NewMarketDataService(
		repository.NewPriceRepository(),
		repository.NewFeatureStoreRepository(),
		secrets.FeatureFilePath,
	)

	return &Dependencies{
		ApiHandler: &api.ApiHandler{
			ForecastService:   forecastService,
			SimulationService: simulationService,
			BundleService:     bundleService,
			MarketDataService: marketDataService,
		},
		BundleService: bundleService,
		Secrets:       secrets,
	}, nil
}

func newBundleSource(ctx context.Context, secrets *util.Secrets) (repository.BundleSourceRepository, error) {
	if secrets.Bundle.LocalDir != "" {
		return repository.NewLocalBundleSourceRepository(secrets.Bundle.LocalDir), nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(secrets.Bundle.Region)}
	if secrets.Bundle.AccessKeyID != "" && secrets.Bundle.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				secrets.Bundle.AccessKeyID,
				secrets.Bundle.SecretAccessKey,
				"",
			),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return repository.NewS3BundleSourceRepository(
		s3.NewFromConfig(awsConfig),
		secrets.Bundle.Bucket,
		secrets.Bundle.Prefix,
	), nil
}
