package data

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerRepo fetches secrets from AWS Secrets Manager. Implements
// repo.SecretRepo; memoization lives in usecase.SecretCache, this adapter
// performs a real fetch on every call.
type SecretsManagerRepo struct {
	client *secretsmanager.Client
}

// NewSecretsManagerRepo loads the default AWS config chain, optionally
// pinning the region.
func NewSecretsManagerRepo(ctx context.Context, region string) (*SecretsManagerRepo, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SecretsManagerRepo{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// GetSecretValue fetches the current string value of the named secret.
func (r *SecretsManagerRepo) GetSecretValue(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("get secret value: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	return *out.SecretString, nil
}
